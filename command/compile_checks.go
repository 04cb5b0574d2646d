package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[CreateProviderMessage]   = (*CreateProviderCommand)(nil)
	_ gocmd.Commander[UpdateProviderMessage]   = (*UpdateProviderCommand)(nil)
	_ gocmd.Commander[DeleteProviderMessage]   = (*DeleteProviderCommand)(nil)
	_ gocmd.Commander[CreateCredentialMessage] = (*CreateCredentialCommand)(nil)
	_ gocmd.Commander[UpdateCredentialMessage] = (*UpdateCredentialCommand)(nil)
	_ gocmd.Commander[DeleteCredentialMessage] = (*DeleteCredentialCommand)(nil)
	_ gocmd.Commander[CreateDisallowMessage]   = (*CreateDisallowCommand)(nil)
	_ gocmd.Commander[DeleteDisallowMessage]   = (*DeleteDisallowCommand)(nil)
	_ gocmd.Commander[CreateUserMessage]       = (*CreateUserCommand)(nil)
	_ gocmd.Commander[DeleteUserMessage]       = (*DeleteUserCommand)(nil)
	_ gocmd.Commander[CreateAPIKeyMessage]     = (*CreateAPIKeyCommand)(nil)
	_ gocmd.Commander[DeleteAPIKeyMessage]     = (*DeleteAPIKeyCommand)(nil)
	_ gocmd.Commander[SetAPIKeyEnabledMessage] = (*SetAPIKeyEnabledCommand)(nil)
	_ gocmd.Commander[SaveGlobalConfigMessage] = (*SaveGlobalConfigCommand)(nil)
	_ gocmd.Commander[ReloadMessage]           = (*ReloadCommand)(nil)
	_ gocmd.Commander[SweepDisallowMessage]    = (*SweepDisallowCommand)(nil)
)
