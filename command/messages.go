package command

import (
	"strings"

	"github.com/goliatone/go-relay/core"
)

const (
	TypeCreateProvider   = "relay.command.provider.create"
	TypeUpdateProvider   = "relay.command.provider.update"
	TypeDeleteProvider   = "relay.command.provider.delete"
	TypeCreateCredential = "relay.command.credential.create"
	TypeUpdateCredential = "relay.command.credential.update"
	TypeDeleteCredential = "relay.command.credential.delete"
	TypeCreateDisallow   = "relay.command.disallow.create"
	TypeDeleteDisallow   = "relay.command.disallow.delete"
	TypeCreateUser       = "relay.command.user.create"
	TypeDeleteUser       = "relay.command.user.delete"
	TypeCreateAPIKey     = "relay.command.api_key.create"
	TypeDeleteAPIKey     = "relay.command.api_key.delete"
	TypeSetAPIKeyEnabled = "relay.command.api_key.set_enabled"
	TypeSaveGlobalConfig = "relay.command.global_config.save"
	TypeReload           = "relay.command.reload"
	TypeSweepDisallow    = "relay.command.disallow.sweep"
)

type CreateProviderMessage struct {
	Provider core.Provider
}

func (CreateProviderMessage) Type() string { return TypeCreateProvider }

func (m CreateProviderMessage) Validate() error {
	return commandWrapValidation(m.Provider.Validate(), "command: invalid provider")
}

type UpdateProviderMessage struct {
	Provider core.Provider
}

func (UpdateProviderMessage) Type() string { return TypeUpdateProvider }

func (m UpdateProviderMessage) Validate() error {
	if strings.TrimSpace(m.Provider.ID) == "" {
		return commandInvalidInputError("command: provider id is required")
	}
	return commandWrapValidation(m.Provider.Validate(), "command: invalid provider")
}

type DeleteProviderMessage struct {
	ID string
}

func (DeleteProviderMessage) Type() string { return TypeDeleteProvider }

func (m DeleteProviderMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: provider id is required")
	}
	return nil
}

type CreateCredentialMessage struct {
	Credential core.Credential
}

func (CreateCredentialMessage) Type() string { return TypeCreateCredential }

func (m CreateCredentialMessage) Validate() error {
	return commandWrapValidation(m.Credential.Validate(), "command: invalid credential")
}

type UpdateCredentialMessage struct {
	Credential core.Credential
}

func (UpdateCredentialMessage) Type() string { return TypeUpdateCredential }

func (m UpdateCredentialMessage) Validate() error {
	if strings.TrimSpace(m.Credential.ID) == "" {
		return commandInvalidInputError("command: credential id is required")
	}
	return commandWrapValidation(m.Credential.Validate(), "command: invalid credential")
}

type DeleteCredentialMessage struct {
	ID string
}

func (DeleteCredentialMessage) Type() string { return TypeDeleteCredential }

func (m DeleteCredentialMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: credential id is required")
	}
	return nil
}

type CreateDisallowMessage struct {
	Record core.DisallowRecord
}

func (CreateDisallowMessage) Type() string { return TypeCreateDisallow }

func (m CreateDisallowMessage) Validate() error {
	return commandWrapValidation(m.Record.Validate(), "command: invalid disallow record")
}

type DeleteDisallowMessage struct {
	ID string
}

func (DeleteDisallowMessage) Type() string { return TypeDeleteDisallow }

func (m DeleteDisallowMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: disallow record id is required")
	}
	return nil
}

type CreateUserMessage struct {
	User core.User
}

func (CreateUserMessage) Type() string { return TypeCreateUser }

func (m CreateUserMessage) Validate() error {
	if strings.TrimSpace(m.User.Name) == "" {
		return commandInvalidInputError("command: user name is required")
	}
	return nil
}

type DeleteUserMessage struct {
	ID string
}

func (DeleteUserMessage) Type() string { return TypeDeleteUser }

func (m DeleteUserMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: user id is required")
	}
	return nil
}

type CreateAPIKeyMessage struct {
	Key core.APIKey
}

func (CreateAPIKeyMessage) Type() string { return TypeCreateAPIKey }

func (m CreateAPIKeyMessage) Validate() error {
	return commandWrapValidation(m.Key.Validate(), "command: invalid api key")
}

type DeleteAPIKeyMessage struct {
	ID string
}

func (DeleteAPIKeyMessage) Type() string { return TypeDeleteAPIKey }

func (m DeleteAPIKeyMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: api key id is required")
	}
	return nil
}

type SetAPIKeyEnabledMessage struct {
	ID      string
	Enabled bool
}

func (SetAPIKeyEnabledMessage) Type() string { return TypeSetAPIKeyEnabled }

func (m SetAPIKeyEnabledMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return commandInvalidInputError("command: api key id is required")
	}
	return nil
}

type SaveGlobalConfigMessage struct {
	Config core.GlobalConfig
}

func (SaveGlobalConfigMessage) Type() string { return TypeSaveGlobalConfig }

func (m SaveGlobalConfigMessage) Validate() error {
	return commandWrapValidation(m.Config.Validate(), "command: invalid global config")
}

type ReloadMessage struct{}

func (ReloadMessage) Type() string { return TypeReload }

func (ReloadMessage) Validate() error { return nil }

// SweepDisallowMessage triggers one sweep of expired disallow records, the
// same operation the scheduled job runs.
type SweepDisallowMessage struct{}

func (SweepDisallowMessage) Type() string { return TypeSweepDisallow }

func (SweepDisallowMessage) Validate() error { return nil }
