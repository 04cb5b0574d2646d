package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-relay/core"
)

type MutatingService interface {
	SaveGlobalConfig(ctx context.Context, in core.GlobalConfig) error
	CreateProvider(ctx context.Context, in core.Provider) (core.Provider, error)
	UpdateProvider(ctx context.Context, in core.Provider) (core.Provider, error)
	DeleteProvider(ctx context.Context, id string) error
	CreateCredential(ctx context.Context, in core.Credential) (core.Credential, error)
	UpdateCredential(ctx context.Context, in core.Credential) (core.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
	CreateDisallow(ctx context.Context, in core.DisallowRecord) (core.DisallowRecord, error)
	DeleteDisallow(ctx context.Context, id string) error
	CreateUser(ctx context.Context, in core.User) (core.User, error)
	DeleteUser(ctx context.Context, id string) error
	CreateAPIKey(ctx context.Context, in core.APIKey) (core.APIKey, error)
	DeleteAPIKey(ctx context.Context, id string) error
	SetAPIKeyEnabled(ctx context.Context, id string, enabled bool) error
	Reload(ctx context.Context) error
}

// SweeperService is the subset the scheduled disallow sweep needs. It reports
// how many expired records it removed.
type SweeperService interface {
	SweepDisallow(ctx context.Context) (int64, error)
}

type CreateProviderCommand struct {
	service MutatingService
}

func NewCreateProviderCommand(service MutatingService) *CreateProviderCommand {
	return &CreateProviderCommand{service: service}
}

func (c *CreateProviderCommand) Execute(ctx context.Context, msg CreateProviderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provider service is required")
	}
	out, err := c.service.CreateProvider(ctx, msg.Provider)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateProviderCommand struct {
	service MutatingService
}

func NewUpdateProviderCommand(service MutatingService) *UpdateProviderCommand {
	return &UpdateProviderCommand{service: service}
}

func (c *UpdateProviderCommand) Execute(ctx context.Context, msg UpdateProviderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provider service is required")
	}
	out, err := c.service.UpdateProvider(ctx, msg.Provider)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteProviderCommand struct {
	service MutatingService
}

func NewDeleteProviderCommand(service MutatingService) *DeleteProviderCommand {
	return &DeleteProviderCommand{service: service}
}

func (c *DeleteProviderCommand) Execute(ctx context.Context, msg DeleteProviderMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: provider service is required")
	}
	return c.service.DeleteProvider(ctx, msg.ID)
}

type CreateCredentialCommand struct {
	service MutatingService
}

func NewCreateCredentialCommand(service MutatingService) *CreateCredentialCommand {
	return &CreateCredentialCommand{service: service}
}

func (c *CreateCredentialCommand) Execute(ctx context.Context, msg CreateCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.CreateCredential(ctx, msg.Credential)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type UpdateCredentialCommand struct {
	service MutatingService
}

func NewUpdateCredentialCommand(service MutatingService) *UpdateCredentialCommand {
	return &UpdateCredentialCommand{service: service}
}

func (c *UpdateCredentialCommand) Execute(ctx context.Context, msg UpdateCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	out, err := c.service.UpdateCredential(ctx, msg.Credential)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteCredentialCommand struct {
	service MutatingService
}

func NewDeleteCredentialCommand(service MutatingService) *DeleteCredentialCommand {
	return &DeleteCredentialCommand{service: service}
}

func (c *DeleteCredentialCommand) Execute(ctx context.Context, msg DeleteCredentialMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: credential service is required")
	}
	return c.service.DeleteCredential(ctx, msg.ID)
}

type CreateDisallowCommand struct {
	service MutatingService
}

func NewCreateDisallowCommand(service MutatingService) *CreateDisallowCommand {
	return &CreateDisallowCommand{service: service}
}

func (c *CreateDisallowCommand) Execute(ctx context.Context, msg CreateDisallowMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disallow service is required")
	}
	out, err := c.service.CreateDisallow(ctx, msg.Record)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteDisallowCommand struct {
	service MutatingService
}

func NewDeleteDisallowCommand(service MutatingService) *DeleteDisallowCommand {
	return &DeleteDisallowCommand{service: service}
}

func (c *DeleteDisallowCommand) Execute(ctx context.Context, msg DeleteDisallowMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disallow service is required")
	}
	return c.service.DeleteDisallow(ctx, msg.ID)
}

type CreateUserCommand struct {
	service MutatingService
}

func NewCreateUserCommand(service MutatingService) *CreateUserCommand {
	return &CreateUserCommand{service: service}
}

func (c *CreateUserCommand) Execute(ctx context.Context, msg CreateUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: user service is required")
	}
	out, err := c.service.CreateUser(ctx, msg.User)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteUserCommand struct {
	service MutatingService
}

func NewDeleteUserCommand(service MutatingService) *DeleteUserCommand {
	return &DeleteUserCommand{service: service}
}

func (c *DeleteUserCommand) Execute(ctx context.Context, msg DeleteUserMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: user service is required")
	}
	return c.service.DeleteUser(ctx, msg.ID)
}

type CreateAPIKeyCommand struct {
	service MutatingService
}

func NewCreateAPIKeyCommand(service MutatingService) *CreateAPIKeyCommand {
	return &CreateAPIKeyCommand{service: service}
}

func (c *CreateAPIKeyCommand) Execute(ctx context.Context, msg CreateAPIKeyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: api key service is required")
	}
	out, err := c.service.CreateAPIKey(ctx, msg.Key)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DeleteAPIKeyCommand struct {
	service MutatingService
}

func NewDeleteAPIKeyCommand(service MutatingService) *DeleteAPIKeyCommand {
	return &DeleteAPIKeyCommand{service: service}
}

func (c *DeleteAPIKeyCommand) Execute(ctx context.Context, msg DeleteAPIKeyMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: api key service is required")
	}
	return c.service.DeleteAPIKey(ctx, msg.ID)
}

type SetAPIKeyEnabledCommand struct {
	service MutatingService
}

func NewSetAPIKeyEnabledCommand(service MutatingService) *SetAPIKeyEnabledCommand {
	return &SetAPIKeyEnabledCommand{service: service}
}

func (c *SetAPIKeyEnabledCommand) Execute(ctx context.Context, msg SetAPIKeyEnabledMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: api key service is required")
	}
	return c.service.SetAPIKeyEnabled(ctx, msg.ID, msg.Enabled)
}

type SaveGlobalConfigCommand struct {
	service MutatingService
}

func NewSaveGlobalConfigCommand(service MutatingService) *SaveGlobalConfigCommand {
	return &SaveGlobalConfigCommand{service: service}
}

func (c *SaveGlobalConfigCommand) Execute(ctx context.Context, msg SaveGlobalConfigMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: config service is required")
	}
	return c.service.SaveGlobalConfig(ctx, msg.Config)
}

type ReloadCommand struct {
	service MutatingService
}

func NewReloadCommand(service MutatingService) *ReloadCommand {
	return &ReloadCommand{service: service}
}

func (c *ReloadCommand) Execute(ctx context.Context, msg ReloadMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reload service is required")
	}
	return c.service.Reload(ctx)
}

type SweepDisallowCommand struct {
	service SweeperService
}

func NewSweepDisallowCommand(service SweeperService) *SweepDisallowCommand {
	return &SweepDisallowCommand{service: service}
}

func (c *SweepDisallowCommand) Execute(ctx context.Context, msg SweepDisallowMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: sweeper service is required")
	}
	removed, err := c.service.SweepDisallow(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, removed)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
