package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	relay "github.com/goliatone/go-relay"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const sourceLabel = "go-relay"

// Source is one dialect's migration filesystem from the embedded tree.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// RegisterFunc receives each dialect filesystem, typically to hand it to a
// persistence client's SQL migration hook.
type RegisterFunc func(ctx context.Context, dialect string, sourceLabel string, fsys fs.FS) error

// Sources resolves the per-dialect migration filesystems. The postgres tree
// is the root; sqlite lives in the sqlite/ subdirectory. Each returned source
// is checked to contain at least one *.up.sql file.
func Sources() ([]Source, error) {
	root := relay.GetCoreMigrationsFS()
	base, err := fs.Sub(root, "data/sql/migrations")
	if err != nil {
		return nil, fmt.Errorf("migrations: embedded tree missing: %w", err)
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: sqlite subtree missing: %w", err)
	}

	sources := []Source{
		{Dialect: DialectPostgres, Path: "data/sql/migrations", FS: base},
		{Dialect: DialectSQLite, Path: path.Join("data/sql/migrations", "sqlite"), FS: sqliteFS},
	}
	for _, src := range sources {
		matches, globErr := fs.Glob(src.FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: glob %s: %w", src.Dialect, globErr)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("migrations: no *.up.sql files for %s under %s", src.Dialect, src.Path)
		}
	}
	return sources, nil
}

// Register feeds the requested dialects to registerFn. With no dialects
// given, every embedded dialect registers.
func Register(ctx context.Context, registerFn RegisterFunc, dialects ...string) error {
	if registerFn == nil {
		return fmt.Errorf("migrations: register function is required")
	}

	wanted := normalizeDialects(dialects)
	sources, err := Sources()
	if err != nil {
		return err
	}

	for _, src := range sources {
		if len(wanted) > 0 && !slices.Contains(wanted, src.Dialect) {
			continue
		}
		if err := registerFn(ctx, src.Dialect, sourceLabel, src.FS); err != nil {
			return fmt.Errorf("migrations: register %s (%s): %w", src.Dialect, src.Path, err)
		}
	}
	return nil
}

func normalizeDialects(dialects []string) []string {
	out := make([]string, 0, len(dialects))
	for _, dialect := range dialects {
		trimmed := strings.TrimSpace(strings.ToLower(dialect))
		if trimmed == "" || slices.Contains(out, trimmed) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
