package repomanager

import (
	"context"
	"database/sql"

	"github.com/nownpp/data-hub-entry/internal/server/repositories/batches"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/collectors"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/settings"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/submissions"
)

// Repositories groups the repositories bound to one connection or
// transaction.
type Repositories interface {
	Collectors() collectors.Repository
	Submissions() submissions.Repository
	Batches() batches.Repository
	Settings() settings.Repository
}

// RepositoryManager vends repositories outside of a transaction and runs
// units of work inside one. fn sees repositories bound to the transaction;
// returning an error rolls everything back.
type RepositoryManager interface {
	Repositories
	WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, repos Repositories) error) error
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
}
