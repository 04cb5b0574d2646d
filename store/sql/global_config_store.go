package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-relay/core"
	"github.com/uptrace/bun"
)

// globalConfigRowID pins the config to a single row.
const globalConfigRowID = 1

type GlobalConfigStore struct {
	db *bun.DB
}

func (s *GlobalConfigStore) Load(ctx context.Context) (core.GlobalConfig, bool, error) {
	if s == nil || s.db == nil {
		return core.GlobalConfig{}, false, fmt.Errorf("sqlstore: global config store is not configured")
	}
	record := &globalConfigRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("id = ?", globalConfigRowID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.GlobalConfig{}, false, nil
	}
	if err != nil {
		return core.GlobalConfig{}, false, err
	}
	var config core.GlobalConfig
	if err := json.Unmarshal([]byte(record.Config), &config); err != nil {
		return core.GlobalConfig{}, false, fmt.Errorf("sqlstore: global config row is corrupt: %w", err)
	}
	return config, true, nil
}

func (s *GlobalConfigStore) Save(ctx context.Context, in core.GlobalConfig) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: global config store is not configured")
	}
	if err := in.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	record := &globalConfigRecord{
		ID:        globalConfigRowID,
		Config:    string(payload),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("config = EXCLUDED.config").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
