package relay

import (
	"embed"
	"io/fs"
)

// migrationsFS contains the full relay SQL migration tree, including dialect
// alternatives under data/sql/migrations/sqlite.
//
//go:embed data/sql/migrations/*.sql data/sql/migrations/sqlite/*.sql
var migrationsFS embed.FS

// GetCoreMigrationsFS exposes the embedded migration sources.
func GetCoreMigrationsFS() fs.FS {
	return migrationsFS
}
