package sqlstore

import (
	"context"
	"fmt"

	"github.com/goliatone/go-relay/core"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type TrafficStore struct {
	db *bun.DB
}

func (s *TrafficStore) Insert(ctx context.Context, event core.TrafficEvent) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: traffic store is not configured")
	}
	record, err := newTrafficRecord(uuid.NewString(), event)
	if err != nil {
		return err
	}
	_, err = s.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// UsageTotals aggregates upstream token totals per provider. Downstream
// events mirror what the client saw and would double-count, so they are
// excluded.
func (s *TrafficStore) UsageTotals(ctx context.Context) ([]core.UsageTotals, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: traffic store is not configured")
	}
	var totals []core.UsageTotals
	err := s.db.NewSelect().
		Model((*trafficRecord)(nil)).
		ColumnExpr("provider").
		ColumnExpr("COUNT(*) AS requests").
		ColumnExpr("COALESCE(SUM(claude_total_tokens), 0) AS claude").
		ColumnExpr("COALESCE(SUM(gemini_total_tokens), 0) AS gemini").
		ColumnExpr("COALESCE(SUM(openai_total_tokens), 0) AS open_ai").
		ColumnExpr("COALESCE(SUM(responses_total_tokens), 0) AS responses").
		Where("direction = ?", string(core.TrafficUpstream)).
		GroupExpr("provider").
		OrderExpr("provider ASC").
		Scan(ctx, &totals)
	if err != nil {
		return nil, err
	}
	return totals, nil
}
