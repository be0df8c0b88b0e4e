package postgres

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate brings the schema to the latest embedded revision. A schema that is
// already up to date is a no-op; any other failure must abort startup before
// the server binds, serving traffic against a stale schema is worse than
// failing fast.
func (r *Repository) Migrate(dbName string) error {
	const opn = "repository.postgres.Migrate"

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("%s: failed to load embedded migrations: %w", opn, err)
	}

	driver, err := migratepgx.WithInstance(r.db, &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("%s: failed to create migration driver: %w", opn, err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return fmt.Errorf("%s: failed to create migrator: %w", opn, err)
	}

	if err = migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.log.Info("Database schema is up to date", "op", opn)
			return nil
		}
		return fmt.Errorf("%s: failed to apply migrations: %w", opn, err)
	}

	r.log.Info("Database schema migrated to the latest revision", "op", opn)

	return nil
}
