package sqlstore

import "github.com/goliatone/go-relay/core"

var (
	_ core.ProviderStore     = (*ProviderStore)(nil)
	_ core.CredentialStore   = (*CredentialStore)(nil)
	_ core.DisallowStore     = (*DisallowStore)(nil)
	_ core.UserStore         = (*UserStore)(nil)
	_ core.APIKeyStore       = (*APIKeyStore)(nil)
	_ core.GlobalConfigStore = (*GlobalConfigStore)(nil)
	_ core.TrafficStore      = (*TrafficStore)(nil)
	_ core.StoreProvider     = (*RepositoryFactory)(nil)
)
