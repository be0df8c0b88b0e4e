package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver
	"github.com/mkrutov/wb-catalog/internal/config"
)

// Repository represents a data repository that interacts with the database
// and provides logging capabilities. It holds a reference to the database
// and a logger instance for logging operations.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens a connection pool to PostgreSQL and runs the readiness
// gate: the database must answer a ping before anything else is allowed to
// happen. It returns a pointer to the newly created Repository.
func NewRepository(ctx context.Context, log *slog.Logger, cfg config.Postgres) (*Repository, error) {
	dtb, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	repo := &Repository{db: dtb, log: log}

	// Block until the database accepts connections, or give up.
	if err = repo.WaitReady(ctx, cfg.ConnectAttempts, cfg.ConnectBackoff); err != nil {
		_ = dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	return repo, nil
}

// NewForTest wraps an existing database handle (e.g. sqlmock) in a Repository.
func NewForTest(dtb *sql.DB) *Repository {
	return &Repository{db: dtb, log: slog.Default()}
}

// WaitReady pings the database under exponential backoff until it answers,
// the attempt ceiling is reached, or the context is canceled. Each miss is
// logged to the error stream together with the delay until the next attempt.
func (r *Repository) WaitReady(ctx context.Context, attempts int, initialInterval time.Duration) error {
	const opn = "repository.postgres.WaitReady"

	// Guard against underflow in the retry conversion below.
	if attempts < 1 {
		attempts = 1
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initialInterval

	policy := backoff.WithContext(backoff.WithMaxRetries(expBackoff, uint64(attempts-1)), ctx)

	err := backoff.RetryNotify(
		func() error {
			return r.db.PingContext(ctx)
		},
		policy,
		func(err error, next time.Duration) {
			r.log.ErrorContext(ctx, "database is not ready yet",
				"op", opn, "error", err, "next_attempt_in", next)
		},
	)
	if err != nil {
		return fmt.Errorf("%s: database did not become ready after %d attempts: %w", opn, attempts, err)
	}

	r.log.InfoContext(ctx, "Database is ready", "op", opn)

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.postgres.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
