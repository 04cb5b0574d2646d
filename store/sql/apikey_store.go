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

type APIKeyStore struct {
	db   *bun.DB
	repo repository.Repository[*apiKeyRecord]
}

func (s *APIKeyStore) List(ctx context.Context) ([]core.APIKey, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: api key store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.APIKey, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *APIKeyStore) Get(ctx context.Context, id string) (core.APIKey, error) {
	if s == nil || s.repo == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: api key store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.APIKey{}, fmt.Errorf("%w: id %q", core.ErrAPIKeyNotFound, id)
		}
		return core.APIKey{}, err
	}
	return record.toDomain(), nil
}

func (s *APIKeyStore) Create(ctx context.Context, in core.APIKey) (core.APIKey, error) {
	if s == nil || s.repo == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: api key store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.APIKey{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		in.ID = uuid.NewString()
	}
	record := newAPIKeyRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.APIKey{}, err
	}
	return created.toDomain(), nil
}

// Upsert matches by key value so boot seeding stays idempotent.
func (s *APIKeyStore) Upsert(ctx context.Context, in core.APIKey) (core.APIKey, error) {
	if s == nil || s.db == nil {
		return core.APIKey{}, fmt.Errorf("sqlstore: api key store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.APIKey{}, err
	}
	existing := &apiKeyRecord{}
	err := s.db.NewSelect().
		Model(existing).
		Where("key = ?", strings.TrimSpace(in.Key)).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.APIKey{}, err
	}
	return s.Create(ctx, in)
}

func (s *APIKeyStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: api key store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: api key id is required")
	}
	res, err := s.db.NewUpdate().
		Model((*apiKeyRecord)(nil)).
		Set("enabled = ?", enabled).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrAPIKeyNotFound, id)
	}
	return nil
}

func (s *APIKeyStore) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: api key store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: api key id is required")
	}
	_, err := s.db.NewUpdate().
		Model((*apiKeyRecord)(nil)).
		Set("last_used_at = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (s *APIKeyStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: api key store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: api key id is required")
	}
	res, err := s.db.NewDelete().
		Model((*apiKeyRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrAPIKeyNotFound, id)
	}
	return nil
}
