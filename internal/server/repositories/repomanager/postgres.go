// Package repomanager provides RepositoryManager implementations: one for
// PostgreSQL, wiring repository constructors and goose migrations, and an
// in-memory one used by service tests and local runs without a database.
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/nownpp/data-hub-entry/internal/dbx"
	"github.com/nownpp/data-hub-entry/internal/server/migrations"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/batches"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/collectors"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/settings"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/submissions"
	"github.com/pressly/goose/v3"
)

// postgresRepositories binds every repository to the same DBTX.
type postgresRepositories struct {
	db dbx.DBTX
}

func (r postgresRepositories) Collectors() collectors.Repository {
	return collectors.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Submissions() submissions.Repository {
	return submissions.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Batches() batches.Repository {
	return batches.NewPostgresRepository(r.db)
}

func (r postgresRepositories) Settings() settings.Repository {
	return settings.NewPostgresRepository(r.db)
}

// PostgresRepositoryManager vends PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	postgresRepositories
	db *sql.DB
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{postgresRepositories: postgresRepositories{db: db}, db: db}
}

// WithTx runs fn inside a transaction opened with opts.
func (m *PostgresRepositoryManager) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, repos Repositories) error) error {
	return dbx.WithTx(ctx, m.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, postgresRepositories{db: tx})
	})
}

func (m *PostgresRepositoryManager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}
