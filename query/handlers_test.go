package query

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-relay/core"
)

type stubReaders struct {
	stats  core.StatsReport
	config core.GlobalConfig
	found  bool
	totals []core.UsageTotals
}

func (s stubReaders) Stats(context.Context) (core.StatsReport, error) {
	return s.stats, nil
}

func (s stubReaders) LoadGlobalConfig(context.Context) (core.GlobalConfig, bool, error) {
	return s.config, s.found, nil
}

func (s stubReaders) UsageTotals(context.Context) ([]core.UsageTotals, error) {
	return s.totals, nil
}

func TestStatsQuery_Delegates(t *testing.T) {
	reader := stubReaders{stats: core.StatsReport{AuthKeys: 5}}
	report, err := NewStatsQuery(reader).Query(context.Background(), StatsMessage{})
	if err != nil {
		t.Fatalf("stats query: %v", err)
	}
	if report.AuthKeys != 5 {
		t.Fatalf("unexpected report %#v", report)
	}
}

func TestLoadGlobalConfigQuery_ReportsPresence(t *testing.T) {
	reader := stubReaders{config: core.GlobalConfig{Host: "0.0.0.0", Port: 9090}, found: true}
	result, err := NewLoadGlobalConfigQuery(reader).Query(context.Background(), LoadGlobalConfigMessage{})
	if err != nil {
		t.Fatalf("load config query: %v", err)
	}
	if !result.Found || result.Config.Port != 9090 {
		t.Fatalf("unexpected result %#v", result)
	}

	result, err = NewLoadGlobalConfigQuery(stubReaders{}).Query(context.Background(), LoadGlobalConfigMessage{})
	if err != nil {
		t.Fatalf("load config query without row: %v", err)
	}
	if result.Found {
		t.Fatalf("missing row must report Found=false")
	}
}

func TestUsageTotalsQuery_Delegates(t *testing.T) {
	reader := stubReaders{totals: []core.UsageTotals{{Provider: "claude", Requests: 2}}}
	totals, err := NewUsageTotalsQuery(reader).Query(context.Background(), UsageTotalsMessage{})
	if err != nil {
		t.Fatalf("usage totals query: %v", err)
	}
	if len(totals) != 1 || totals[0].Provider != "claude" {
		t.Fatalf("unexpected totals %#v", totals)
	}
}

func TestQueries_NilReaderFails(t *testing.T) {
	_, err := NewStatsQuery(nil).Query(context.Background(), StatsMessage{})
	if err == nil {
		t.Fatalf("expected dependency error")
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != core.RelayErrorInternal {
		t.Fatalf("expected internal text code, got %v", err)
	}
}

func TestQueryMessageValidation(t *testing.T) {
	if err := (GetProviderMessage{ID: "prov-1"}).Validate(); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}
	if err := (GetProviderMessage{}).Validate(); err == nil {
		t.Fatalf("missing provider id must fail validation")
	}
	if err := (GetCredentialMessage{}).Validate(); err == nil {
		t.Fatalf("missing credential id must fail validation")
	}
}
