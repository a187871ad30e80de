// Package collectors stores collector accounts and their credentials.
package collectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/dbx"
	"github.com/nownpp/data-hub-entry/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts collector, assigning an ID when it has none. A duplicate
// name yields common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, collector *models.Collector) (*models.Collector, error) {
	if collector.ID == "" {
		collector.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO collectors (id, name, is_active, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		collector.ID, collector.Name, collector.IsActive, collector.PasswordHash).Scan(&collector.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return collector, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Collector, error) {
	query :=
		`SELECT id, name, is_active, password_hash, created_at FROM collectors
		 WHERE name = $1`

	var (
		c    models.Collector
		hash sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, name).Scan(&c.ID, &c.Name, &c.IsActive, &hash, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if hash.Valid {
		c.PasswordHash = &hash.String
	}

	return &c, nil
}

// List returns all collectors in creation order. Password hashes are not
// read.
func (r *PostgresRepository) List(ctx context.Context) ([]models.Collector, error) {
	query :=
		`SELECT id, name, is_active, created_at FROM collectors
		 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Collector, 0)
	for rows.Next() {
		var c models.Collector
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE collectors SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
