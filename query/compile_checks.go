package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-relay/core"
)

var (
	_ gocmd.Querier[StatsMessage, core.StatsReport]              = (*StatsQuery)(nil)
	_ gocmd.Querier[LoadGlobalConfigMessage, GlobalConfigResult] = (*LoadGlobalConfigQuery)(nil)
	_ gocmd.Querier[ListProvidersMessage, []core.Provider]       = (*ListProvidersQuery)(nil)
	_ gocmd.Querier[GetProviderMessage, core.Provider]           = (*GetProviderQuery)(nil)
	_ gocmd.Querier[ListCredentialsMessage, []core.Credential]   = (*ListCredentialsQuery)(nil)
	_ gocmd.Querier[GetCredentialMessage, core.Credential]       = (*GetCredentialQuery)(nil)
	_ gocmd.Querier[ListDisallowMessage, []core.DisallowRecord]  = (*ListDisallowQuery)(nil)
	_ gocmd.Querier[ListUsersMessage, []core.User]               = (*ListUsersQuery)(nil)
	_ gocmd.Querier[ListAPIKeysMessage, []core.APIKey]           = (*ListAPIKeysQuery)(nil)
	_ gocmd.Querier[UsageTotalsMessage, []core.UsageTotals]      = (*UsageTotalsQuery)(nil)
)
