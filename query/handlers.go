package query

import (
	"context"

	"github.com/goliatone/go-relay/core"
)

type StatsReader interface {
	Stats(ctx context.Context) (core.StatsReport, error)
}

type ConfigReader interface {
	LoadGlobalConfig(ctx context.Context) (core.GlobalConfig, bool, error)
}

type ProviderReader interface {
	ListProviders(ctx context.Context) ([]core.Provider, error)
	GetProvider(ctx context.Context, id string) (core.Provider, error)
}

type CredentialReader interface {
	ListCredentials(ctx context.Context) ([]core.Credential, error)
	GetCredential(ctx context.Context, id string) (core.Credential, error)
}

type DisallowReader interface {
	ListDisallow(ctx context.Context) ([]core.DisallowRecord, error)
}

type UserReader interface {
	ListUsers(ctx context.Context) ([]core.User, error)
}

type APIKeyReader interface {
	ListAPIKeys(ctx context.Context) ([]core.APIKey, error)
}

type UsageReader interface {
	UsageTotals(ctx context.Context) ([]core.UsageTotals, error)
}

type StatsQuery struct {
	reader StatsReader
}

func NewStatsQuery(reader StatsReader) *StatsQuery {
	return &StatsQuery{reader: reader}
}

func (q *StatsQuery) Query(ctx context.Context, msg StatsMessage) (core.StatsReport, error) {
	if q == nil || q.reader == nil {
		return core.StatsReport{}, queryDependencyError("query: stats reader is required")
	}
	return q.reader.Stats(ctx)
}

// GlobalConfigResult carries the stored config plus whether a row existed at
// all, so callers can tell "defaults" apart from "persisted".
type GlobalConfigResult struct {
	Config core.GlobalConfig
	Found  bool
}

type LoadGlobalConfigQuery struct {
	reader ConfigReader
}

func NewLoadGlobalConfigQuery(reader ConfigReader) *LoadGlobalConfigQuery {
	return &LoadGlobalConfigQuery{reader: reader}
}

func (q *LoadGlobalConfigQuery) Query(ctx context.Context, msg LoadGlobalConfigMessage) (GlobalConfigResult, error) {
	if q == nil || q.reader == nil {
		return GlobalConfigResult{}, queryDependencyError("query: config reader is required")
	}
	config, found, err := q.reader.LoadGlobalConfig(ctx)
	if err != nil {
		return GlobalConfigResult{}, err
	}
	return GlobalConfigResult{Config: config, Found: found}, nil
}

type ListProvidersQuery struct {
	reader ProviderReader
}

func NewListProvidersQuery(reader ProviderReader) *ListProvidersQuery {
	return &ListProvidersQuery{reader: reader}
}

func (q *ListProvidersQuery) Query(ctx context.Context, msg ListProvidersMessage) ([]core.Provider, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: provider reader is required")
	}
	return q.reader.ListProviders(ctx)
}

type GetProviderQuery struct {
	reader ProviderReader
}

func NewGetProviderQuery(reader ProviderReader) *GetProviderQuery {
	return &GetProviderQuery{reader: reader}
}

func (q *GetProviderQuery) Query(ctx context.Context, msg GetProviderMessage) (core.Provider, error) {
	if q == nil || q.reader == nil {
		return core.Provider{}, queryDependencyError("query: provider reader is required")
	}
	return q.reader.GetProvider(ctx, msg.ID)
}

type ListCredentialsQuery struct {
	reader CredentialReader
}

func NewListCredentialsQuery(reader CredentialReader) *ListCredentialsQuery {
	return &ListCredentialsQuery{reader: reader}
}

func (q *ListCredentialsQuery) Query(ctx context.Context, msg ListCredentialsMessage) ([]core.Credential, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: credential reader is required")
	}
	return q.reader.ListCredentials(ctx)
}

type GetCredentialQuery struct {
	reader CredentialReader
}

func NewGetCredentialQuery(reader CredentialReader) *GetCredentialQuery {
	return &GetCredentialQuery{reader: reader}
}

func (q *GetCredentialQuery) Query(ctx context.Context, msg GetCredentialMessage) (core.Credential, error) {
	if q == nil || q.reader == nil {
		return core.Credential{}, queryDependencyError("query: credential reader is required")
	}
	return q.reader.GetCredential(ctx, msg.ID)
}

type ListDisallowQuery struct {
	reader DisallowReader
}

func NewListDisallowQuery(reader DisallowReader) *ListDisallowQuery {
	return &ListDisallowQuery{reader: reader}
}

func (q *ListDisallowQuery) Query(ctx context.Context, msg ListDisallowMessage) ([]core.DisallowRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: disallow reader is required")
	}
	return q.reader.ListDisallow(ctx)
}

type ListUsersQuery struct {
	reader UserReader
}

func NewListUsersQuery(reader UserReader) *ListUsersQuery {
	return &ListUsersQuery{reader: reader}
}

func (q *ListUsersQuery) Query(ctx context.Context, msg ListUsersMessage) ([]core.User, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: user reader is required")
	}
	return q.reader.ListUsers(ctx)
}

type ListAPIKeysQuery struct {
	reader APIKeyReader
}

func NewListAPIKeysQuery(reader APIKeyReader) *ListAPIKeysQuery {
	return &ListAPIKeysQuery{reader: reader}
}

func (q *ListAPIKeysQuery) Query(ctx context.Context, msg ListAPIKeysMessage) ([]core.APIKey, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: api key reader is required")
	}
	return q.reader.ListAPIKeys(ctx)
}

type UsageTotalsQuery struct {
	reader UsageReader
}

func NewUsageTotalsQuery(reader UsageReader) *UsageTotalsQuery {
	return &UsageTotalsQuery{reader: reader}
}

func (q *UsageTotalsQuery) Query(ctx context.Context, msg UsageTotalsMessage) ([]core.UsageTotals, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: usage reader is required")
	}
	return q.reader.UsageTotals(ctx)
}
