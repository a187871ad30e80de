// Package batches stores settlement batches. Amounts travel as NUMERIC text
// so they round-trip through decimal.Decimal without float conversion.
package batches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/dbx"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/shopspring/decimal"
)

const selectColumns = `id, collector_name, submissions_count, total_amount::text, commission_amount::text, net_amount::text, is_delivered, created_at, delivered_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts b. The caller assigns the ID, since submissions are claimed
// against it before the row exists.
func (r *PostgresRepository) Create(ctx context.Context, b *models.Batch) (*models.Batch, error) {
	query :=
		`INSERT INTO batches (id, collector_name, submissions_count, total_amount, commission_amount, net_amount, is_delivered)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		b.ID, b.CollectorName, b.SubmissionsCount,
		b.TotalAmount.String(), b.CommissionAmount.String(), b.NetAmount.String(),
	).Scan(&b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	b.IsDelivered = false
	b.DeliveredAt = nil

	return b, nil
}

func parseAmount(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bad amount %q: %w", v, err)
	}
	return d, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(s scanner) (*models.Batch, error) {
	var (
		b                      models.Batch
		total, commission, net string
		deliveredAt            sql.NullTime
	)
	if err := s.Scan(&b.ID, &b.CollectorName, &b.SubmissionsCount, &total, &commission, &net,
		&b.IsDelivered, &b.CreatedAt, &deliveredAt); err != nil {
		return nil, err
	}

	var err error
	if b.TotalAmount, err = parseAmount(total); err != nil {
		return nil, err
	}
	if b.CommissionAmount, err = parseAmount(commission); err != nil {
		return nil, err
	}
	if b.NetAmount, err = parseAmount(net); err != nil {
		return nil, err
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		b.DeliveredAt = &t
	}
	return &b, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Batch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM batches WHERE id = $1`, id)
	b, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}

func (r *PostgresRepository) ListByCollector(ctx context.Context, collectorName string) ([]models.Batch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM batches WHERE collector_name = $1 ORDER BY created_at DESC`, collectorName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Batch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// SetDelivered updates the delivery flag and timestamp only; the settlement
// amounts are never rewritten.
func (r *PostgresRepository) SetDelivered(ctx context.Context, id string, delivered bool, at *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE batches SET is_delivered = $2, delivered_at = $3 WHERE id = $1`, id, delivered, at)
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
