package sqlite

import (
	"context"
	"embed"
	"io/fs"
	"os"

	"github.com/example/booking-portal/internal/persistence/sqlite/migration"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrate applies all pending schema migrations. The compiled-in set is
// used unless dir names a directory of migration files on disk.
func (cp *ConnectionPool) Migrate(ctx context.Context, dir string, logger zerolog.Logger) error {
	fsys := fs.FS(embeddedMigrations)
	root := "migrations"
	if dir != "" {
		fsys = os.DirFS(dir)
		root = "."
	}
	return migration.NewManager(cp.db, fsys, root, logger).Run(ctx)
}
