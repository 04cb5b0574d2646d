package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"testing"
)

func TestSourcesCoverBothDialects(t *testing.T) {
	sources, err := Sources()
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("expected postgres and sqlite sources, got %d", len(sources))
	}

	seen := map[string]bool{}
	for _, src := range sources {
		matches, globErr := fs.Glob(src.FS, "*.up.sql")
		if globErr != nil {
			t.Fatalf("glob %s: %v", src.Dialect, globErr)
		}
		if len(matches) == 0 {
			t.Fatalf("expected %s migration files under %s", src.Dialect, src.Path)
		}
		seen[src.Dialect] = true
	}
	if !seen[DialectPostgres] || !seen[DialectSQLite] {
		t.Fatalf("expected both dialects, got %v", seen)
	}
}

func TestRegisterFiltersDialects(t *testing.T) {
	var calls []string
	err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		if label != "go-relay" {
			t.Fatalf("unexpected source label %q", label)
		}
		calls = append(calls, dialect)
		return nil
	}, " SQLite ")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected one sqlite registration, got %v", calls)
	}
}

func TestRegisterDefaultsToAllDialects(t *testing.T) {
	var calls []string
	err := Register(context.Background(), func(_ context.Context, dialect string, _ string, _ fs.FS) error {
		calls = append(calls, dialect)
		return nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected both dialects registered, got %v", calls)
	}
}

func TestRegisterPropagatesHookErrors(t *testing.T) {
	err := Register(context.Background(), func(_ context.Context, _ string, _ string, _ fs.FS) error {
		return fmt.Errorf("boom")
	}, DialectPostgres)
	if err == nil {
		t.Fatalf("expected hook error to propagate")
	}
}

func TestRegisterRequiresHook(t *testing.T) {
	if err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil register function")
	}
}
