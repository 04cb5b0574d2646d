package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-relay/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DisallowStore struct {
	db *bun.DB
}

func (s *DisallowStore) List(ctx context.Context) ([]core.DisallowRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: disallow store is not configured")
	}
	var records []*disallowRecord
	err := s.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.DisallowRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *DisallowStore) Create(ctx context.Context, in core.DisallowRecord) (core.DisallowRecord, error) {
	if s == nil || s.db == nil {
		return core.DisallowRecord{}, fmt.Errorf("sqlstore: disallow store is not configured")
	}
	if err := in.Scope.Validate(); err != nil {
		return core.DisallowRecord{}, err
	}
	if err := in.Level.Validate(); err != nil {
		return core.DisallowRecord{}, err
	}
	if strings.TrimSpace(in.ID) == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	record := newDisallowRecord(in)
	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return core.DisallowRecord{}, err
	}
	return record.toDomain(), nil
}

func (s *DisallowStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: disallow store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: disallow record id is required")
	}
	_, err := s.db.NewDelete().
		Model((*disallowRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

// DeleteExpired drops cooldown and transient records past their expiry.
// Dead records carry no expiry and are never swept.
func (s *DisallowStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: disallow store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*disallowRecord)(nil)).
		Where("expires_at IS NOT NULL").
		Where("expires_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(affected), nil
}
