package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-relay/core"
)

// Mutations below delegate to storage, then refresh the in-memory runtime so
// the change takes effect without a restart. A failed refresh is reported but
// does not undo the write; the row is durable and the next reload picks it up.

func (s *Service) refreshAfterMutation(ctx context.Context, operation string) {
	if err := s.Reload(ctx); err != nil {
		s.logger.Error("runtime refresh after mutation failed",
			"operation", operation, "error", err)
	}
}

func (s *Service) LoadGlobalConfig(ctx context.Context) (core.GlobalConfig, bool, error) {
	if s == nil || s.stores == nil {
		return core.GlobalConfig{}, false, fmt.Errorf("relay: service is not configured")
	}
	return s.stores.GlobalConfigStore().Load(ctx)
}

// SaveGlobalConfig persists the row. Host, port and DSN changes apply on the
// next boot; the admin key applies immediately on reload-driven surfaces.
func (s *Service) SaveGlobalConfig(ctx context.Context, in core.GlobalConfig) error {
	if s == nil || s.stores == nil {
		return fmt.Errorf("relay: service is not configured")
	}
	if err := in.Validate(); err != nil {
		return err
	}
	return s.stores.GlobalConfigStore().Save(ctx, in)
}

func (s *Service) ListProviders(ctx context.Context) ([]core.Provider, error) {
	return s.stores.ProviderStore().List(ctx)
}

func (s *Service) GetProvider(ctx context.Context, id string) (core.Provider, error) {
	return s.stores.ProviderStore().Get(ctx, id)
}

func (s *Service) CreateProvider(ctx context.Context, in core.Provider) (core.Provider, error) {
	created, err := s.stores.ProviderStore().Create(ctx, in)
	if err != nil {
		return core.Provider{}, err
	}
	s.refreshAfterMutation(ctx, "provider.create")
	return created, nil
}

func (s *Service) UpdateProvider(ctx context.Context, in core.Provider) (core.Provider, error) {
	updated, err := s.stores.ProviderStore().Update(ctx, in)
	if err != nil {
		return core.Provider{}, err
	}
	s.refreshAfterMutation(ctx, "provider.update")
	return updated, nil
}

func (s *Service) DeleteProvider(ctx context.Context, id string) error {
	if err := s.stores.ProviderStore().Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "provider.delete")
	return nil
}

func (s *Service) ListCredentials(ctx context.Context) ([]core.Credential, error) {
	return s.stores.CredentialStore().List(ctx)
}

func (s *Service) GetCredential(ctx context.Context, id string) (core.Credential, error) {
	return s.stores.CredentialStore().Get(ctx, id)
}

func (s *Service) CreateCredential(ctx context.Context, in core.Credential) (core.Credential, error) {
	created, err := s.stores.CredentialStore().Create(ctx, in)
	if err != nil {
		return core.Credential{}, err
	}
	s.refreshAfterMutation(ctx, "credential.create")
	return created, nil
}

func (s *Service) UpdateCredential(ctx context.Context, in core.Credential) (core.Credential, error) {
	updated, err := s.stores.CredentialStore().Update(ctx, in)
	if err != nil {
		return core.Credential{}, err
	}
	s.refreshAfterMutation(ctx, "credential.update")
	return updated, nil
}

func (s *Service) DeleteCredential(ctx context.Context, id string) error {
	if err := s.stores.CredentialStore().Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "credential.delete")
	return nil
}

func (s *Service) ListDisallow(ctx context.Context) ([]core.DisallowRecord, error) {
	return s.stores.DisallowStore().List(ctx)
}

func (s *Service) CreateDisallow(ctx context.Context, in core.DisallowRecord) (core.DisallowRecord, error) {
	created, err := s.stores.DisallowStore().Create(ctx, in)
	if err != nil {
		return core.DisallowRecord{}, err
	}
	s.refreshAfterMutation(ctx, "disallow.create")
	return created, nil
}

func (s *Service) DeleteDisallow(ctx context.Context, id string) error {
	if err := s.stores.DisallowStore().Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "disallow.delete")
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.stores.UserStore().List(ctx)
}

func (s *Service) CreateUser(ctx context.Context, in core.User) (core.User, error) {
	return s.stores.UserStore().Create(ctx, in)
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.stores.UserStore().Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "user.delete")
	return nil
}

func (s *Service) ListAPIKeys(ctx context.Context) ([]core.APIKey, error) {
	return s.stores.APIKeyStore().List(ctx)
}

func (s *Service) CreateAPIKey(ctx context.Context, in core.APIKey) (core.APIKey, error) {
	created, err := s.stores.APIKeyStore().Create(ctx, in)
	if err != nil {
		return core.APIKey{}, err
	}
	s.refreshAfterMutation(ctx, "api_key.create")
	return created, nil
}

func (s *Service) DeleteAPIKey(ctx context.Context, id string) error {
	if err := s.stores.APIKeyStore().Delete(ctx, id); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "api_key.delete")
	return nil
}

func (s *Service) SetAPIKeyEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.stores.APIKeyStore().SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	s.refreshAfterMutation(ctx, "api_key.set_enabled")
	return nil
}

func (s *Service) Stats(ctx context.Context) (core.StatsReport, error) {
	if s == nil || s.stores == nil {
		return core.StatsReport{}, fmt.Errorf("relay: service is not configured")
	}
	usage, err := s.stores.TrafficStore().UsageTotals(ctx)
	if err != nil {
		return core.StatsReport{}, err
	}
	report := core.StatsReport{
		Usage:    usage,
		AuthKeys: s.auth.Len(),
	}
	if s.registry != nil {
		report.Providers = s.registry.Stats()
	}
	if s.trafficWorker != nil {
		report.TrafficDropped = s.trafficWorker.Dropped()
	}
	return report, nil
}

func (s *Service) UsageTotals(ctx context.Context) ([]core.UsageTotals, error) {
	if s == nil || s.stores == nil {
		return nil, fmt.Errorf("relay: service is not configured")
	}
	return s.stores.TrafficStore().UsageTotals(ctx)
}

// SweepDisallow drops expired disallow marks from the pools and the backing
// table. Dead marks stay until deleted explicitly.
func (s *Service) SweepDisallow(ctx context.Context) (int64, error) {
	if s == nil || s.stores == nil {
		return 0, fmt.Errorf("relay: service is not configured")
	}
	if s.registry != nil {
		for _, provider := range s.registry.List() {
			provider.Pool().Sweep()
		}
	}
	removed, err := s.stores.DisallowStore().DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return int64(removed), nil
}
