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

type UserStore struct {
	db   *bun.DB
	repo repository.Repository[*userRecord]
}

func (s *UserStore) List(ctx context.Context) ([]core.User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: user store is not configured")
	}
	records, _, err := s.repo.List(ctx, repository.OrderBy("created_at ASC"))
	if err != nil {
		return nil, err
	}
	out := make([]core.User, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *UserStore) Get(ctx context.Context, id string) (core.User, error) {
	if s == nil || s.repo == nil {
		return core.User{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("%w: id %q", core.ErrUserNotFound, id)
		}
		return core.User{}, err
	}
	return record.toDomain(), nil
}

func (s *UserStore) Create(ctx context.Context, in core.User) (core.User, error) {
	if s == nil || s.repo == nil {
		return core.User{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	if strings.TrimSpace(in.Name) == "" {
		return core.User{}, fmt.Errorf("sqlstore: user name is required")
	}
	if strings.TrimSpace(in.ID) == "" {
		in.ID = uuid.NewString()
	}
	record := newUserRecord(in, time.Now().UTC())
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.User{}, err
	}
	return created.toDomain(), nil
}

// Upsert matches by name so boot seeding stays idempotent.
func (s *UserStore) Upsert(ctx context.Context, in core.User) (core.User, error) {
	if s == nil || s.db == nil {
		return core.User{}, fmt.Errorf("sqlstore: user store is not configured")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.User{}, fmt.Errorf("sqlstore: user name is required")
	}
	existing := &userRecord{}
	err := s.db.NewSelect().
		Model(existing).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return existing.toDomain(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.User{}, err
	}
	return s.Create(ctx, in)
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: user store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: user id is required")
	}
	res, err := s.db.NewDelete().
		Model((*userRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("%w: id %q", core.ErrUserNotFound, id)
	}
	return nil
}
