package query

import (
	"fmt"
	"strings"
)

const (
	TypeStats            = "relay.query.stats"
	TypeLoadGlobalConfig = "relay.query.global_config.load"
	TypeListProviders    = "relay.query.provider.list"
	TypeGetProvider      = "relay.query.provider.get"
	TypeListCredentials  = "relay.query.credential.list"
	TypeGetCredential    = "relay.query.credential.get"
	TypeListDisallow     = "relay.query.disallow.list"
	TypeListUsers        = "relay.query.user.list"
	TypeListAPIKeys      = "relay.query.api_key.list"
	TypeUsageTotals      = "relay.query.usage.totals"
)

type StatsMessage struct{}

func (StatsMessage) Type() string { return TypeStats }

func (StatsMessage) Validate() error { return nil }

type LoadGlobalConfigMessage struct{}

func (LoadGlobalConfigMessage) Type() string { return TypeLoadGlobalConfig }

func (LoadGlobalConfigMessage) Validate() error { return nil }

type ListProvidersMessage struct{}

func (ListProvidersMessage) Type() string { return TypeListProviders }

func (ListProvidersMessage) Validate() error { return nil }

type GetProviderMessage struct {
	ID string
}

func (GetProviderMessage) Type() string { return TypeGetProvider }

func (m GetProviderMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("query: provider id is required")
	}
	return nil
}

type ListCredentialsMessage struct{}

func (ListCredentialsMessage) Type() string { return TypeListCredentials }

func (ListCredentialsMessage) Validate() error { return nil }

type GetCredentialMessage struct {
	ID string
}

func (GetCredentialMessage) Type() string { return TypeGetCredential }

func (m GetCredentialMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("query: credential id is required")
	}
	return nil
}

type ListDisallowMessage struct{}

func (ListDisallowMessage) Type() string { return TypeListDisallow }

func (ListDisallowMessage) Validate() error { return nil }

type ListUsersMessage struct{}

func (ListUsersMessage) Type() string { return TypeListUsers }

func (ListUsersMessage) Validate() error { return nil }

type ListAPIKeysMessage struct{}

func (ListAPIKeysMessage) Type() string { return TypeListAPIKeys }

func (ListAPIKeysMessage) Validate() error { return nil }

type UsageTotalsMessage struct{}

func (UsageTotalsMessage) Type() string { return TypeUsageTotals }

func (UsageTotalsMessage) Validate() error { return nil }
