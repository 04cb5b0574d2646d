package relay

import (
	"fmt"

	relaycommand "github.com/goliatone/go-relay/command"
	relayquery "github.com/goliatone/go-relay/query"
)

// CommandQueryService is the surface the command and query handlers wrap.
// *Service satisfies it.
type CommandQueryService interface {
	relaycommand.MutatingService
	relaycommand.SweeperService
	relayquery.StatsReader
	relayquery.ConfigReader
	relayquery.ProviderReader
	relayquery.CredentialReader
	relayquery.DisallowReader
	relayquery.UserReader
	relayquery.APIKeyReader
	relayquery.UsageReader
}

type Commands struct {
	CreateProvider   *relaycommand.CreateProviderCommand
	UpdateProvider   *relaycommand.UpdateProviderCommand
	DeleteProvider   *relaycommand.DeleteProviderCommand
	CreateCredential *relaycommand.CreateCredentialCommand
	UpdateCredential *relaycommand.UpdateCredentialCommand
	DeleteCredential *relaycommand.DeleteCredentialCommand
	CreateDisallow   *relaycommand.CreateDisallowCommand
	DeleteDisallow   *relaycommand.DeleteDisallowCommand
	CreateUser       *relaycommand.CreateUserCommand
	DeleteUser       *relaycommand.DeleteUserCommand
	CreateAPIKey     *relaycommand.CreateAPIKeyCommand
	DeleteAPIKey     *relaycommand.DeleteAPIKeyCommand
	SetAPIKeyEnabled *relaycommand.SetAPIKeyEnabledCommand
	SaveGlobalConfig *relaycommand.SaveGlobalConfigCommand
	Reload           *relaycommand.ReloadCommand
	SweepDisallow    *relaycommand.SweepDisallowCommand
}

type Queries struct {
	Stats            *relayquery.StatsQuery
	LoadGlobalConfig *relayquery.LoadGlobalConfigQuery
	ListProviders    *relayquery.ListProvidersQuery
	GetProvider      *relayquery.GetProviderQuery
	ListCredentials  *relayquery.ListCredentialsQuery
	GetCredential    *relayquery.GetCredentialQuery
	ListDisallow     *relayquery.ListDisallowQuery
	ListUsers        *relayquery.ListUsersQuery
	ListAPIKeys      *relayquery.ListAPIKeysQuery
	UsageTotals      *relayquery.UsageTotalsQuery
}

// Facade packages ready-made command and query handlers over one service, for
// wiring into a go-command registry or dispatcher.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

func NewFacade(service CommandQueryService) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("relay: command/query service is required")
	}
	facade := &Facade{service: service}
	facade.commands = Commands{
		CreateProvider:   relaycommand.NewCreateProviderCommand(service),
		UpdateProvider:   relaycommand.NewUpdateProviderCommand(service),
		DeleteProvider:   relaycommand.NewDeleteProviderCommand(service),
		CreateCredential: relaycommand.NewCreateCredentialCommand(service),
		UpdateCredential: relaycommand.NewUpdateCredentialCommand(service),
		DeleteCredential: relaycommand.NewDeleteCredentialCommand(service),
		CreateDisallow:   relaycommand.NewCreateDisallowCommand(service),
		DeleteDisallow:   relaycommand.NewDeleteDisallowCommand(service),
		CreateUser:       relaycommand.NewCreateUserCommand(service),
		DeleteUser:       relaycommand.NewDeleteUserCommand(service),
		CreateAPIKey:     relaycommand.NewCreateAPIKeyCommand(service),
		DeleteAPIKey:     relaycommand.NewDeleteAPIKeyCommand(service),
		SetAPIKeyEnabled: relaycommand.NewSetAPIKeyEnabledCommand(service),
		SaveGlobalConfig: relaycommand.NewSaveGlobalConfigCommand(service),
		Reload:           relaycommand.NewReloadCommand(service),
		SweepDisallow:    relaycommand.NewSweepDisallowCommand(service),
	}
	facade.queries = Queries{
		Stats:            relayquery.NewStatsQuery(service),
		LoadGlobalConfig: relayquery.NewLoadGlobalConfigQuery(service),
		ListProviders:    relayquery.NewListProvidersQuery(service),
		GetProvider:      relayquery.NewGetProviderQuery(service),
		ListCredentials:  relayquery.NewListCredentialsQuery(service),
		GetCredential:    relayquery.NewGetCredentialQuery(service),
		ListDisallow:     relayquery.NewListDisallowQuery(service),
		ListUsers:        relayquery.NewListUsersQuery(service),
		ListAPIKeys:      relayquery.NewListAPIKeysQuery(service),
		UsageTotals:      relayquery.NewUsageTotalsQuery(service),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
