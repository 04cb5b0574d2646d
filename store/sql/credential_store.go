package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-relay/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CredentialStore struct {
	db   *bun.DB
	repo repository.Repository[*credentialRecord]
}

func (s *CredentialStore) List(ctx context.Context) ([]core.Credential, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	return credentialsToDomain(records), nil
}

func (s *CredentialStore) ListByProvider(ctx context.Context, providerID string) ([]core.Credential, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: credential store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("provider_id", "=", strings.TrimSpace(providerID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	return credentialsToDomain(records), nil
}

func (s *CredentialStore) Get(ctx context.Context, id string) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Credential{}, fmt.Errorf("%w: id %q", core.ErrCredentialNotFound, id)
		}
		return core.Credential{}, err
	}
	return record.toDomain(), nil
}

func (s *CredentialStore) Create(ctx context.Context, in core.Credential) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.Credential{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		in.ID = uuid.NewString()
	}
	record := newCredentialRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Credential{}, err
	}
	return created.toDomain(), nil
}

func (s *CredentialStore) Update(ctx context.Context, in core.Credential) (core.Credential, error) {
	if s == nil || s.repo == nil {
		return core.Credential{}, fmt.Errorf("sqlstore: credential store is not configured")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return core.Credential{}, fmt.Errorf("sqlstore: credential id is required")
	}
	if err := in.Validate(); err != nil {
		return core.Credential{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Credential{}, fmt.Errorf("%w: id %q", core.ErrCredentialNotFound, id)
		}
		return core.Credential{}, err
	}
	current.ProviderID = in.ProviderID
	current.Label = in.Label
	current.Secret = in.Secret
	current.Weight = in.Weight
	current.Models = append([]string(nil), in.Models...)
	current.Enabled = in.Enabled
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(id))
	if err != nil {
		return core.Credential{}, err
	}
	return updated.toDomain(), nil
}

func (s *CredentialStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: credential store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: credential id is required")
	}
	res, err := s.db.NewDelete().
		Model((*credentialRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrCredentialNotFound, id)
	}
	return nil
}

func credentialsToDomain(records []*credentialRecord) []core.Credential {
	out := make([]core.Credential, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out
}
