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

type ProviderStore struct {
	db   *bun.DB
	repo repository.Repository[*providerRecord]
}

func (s *ProviderStore) List(ctx context.Context) ([]core.Provider, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: provider store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("name ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.Provider, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *ProviderStore) Get(ctx context.Context, id string) (core.Provider, error) {
	if s == nil || s.repo == nil {
		return core.Provider{}, fmt.Errorf("sqlstore: provider store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Provider{}, fmt.Errorf("%w: id %q", core.ErrProviderNotFound, id)
		}
		return core.Provider{}, err
	}
	return record.toDomain(), nil
}

func (s *ProviderStore) Create(ctx context.Context, in core.Provider) (core.Provider, error) {
	if s == nil || s.repo == nil {
		return core.Provider{}, fmt.Errorf("sqlstore: provider store is not configured")
	}
	if err := in.Validate(); err != nil {
		return core.Provider{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		in.ID = uuid.NewString()
	}
	record := newProviderRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Provider{}, err
	}
	return created.toDomain(), nil
}

func (s *ProviderStore) Update(ctx context.Context, in core.Provider) (core.Provider, error) {
	if s == nil || s.repo == nil {
		return core.Provider{}, fmt.Errorf("sqlstore: provider store is not configured")
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return core.Provider{}, fmt.Errorf("sqlstore: provider id is required")
	}
	if err := in.Validate(); err != nil {
		return core.Provider{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Provider{}, fmt.Errorf("%w: id %q", core.ErrProviderNotFound, id)
		}
		return core.Provider{}, err
	}
	current.Name = in.Name
	current.Enabled = in.Enabled
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, current, repository.UpdateByID(id))
	if err != nil {
		return core.Provider{}, err
	}
	return updated.toDomain(), nil
}

func (s *ProviderStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: provider store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: provider id is required")
	}
	res, err := s.db.NewDelete().
		Model((*providerRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrProviderNotFound, id)
	}
	return nil
}
