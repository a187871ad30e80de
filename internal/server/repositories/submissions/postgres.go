// Package submissions stores collected name/phone records.
package submissions

import (
	"context"
	"database/sql"
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

func (r *PostgresRepository) Create(ctx context.Context, s *models.Submission) (*models.Submission, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO submissions (id, full_name, phone_number, collector_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, s.ID, s.FullName, s.PhoneNumber, s.CollectorName).Scan(&s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

const selectColumns = `id, full_name, phone_number, collector_name, is_delivered, batch_id, created_at`

func (r *PostgresRepository) List(ctx context.Context) ([]models.Submission, error) {
	return r.query(ctx, `SELECT `+selectColumns+` FROM submissions ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListByCollector(ctx context.Context, collectorName string) ([]models.Submission, error) {
	query :=
		`SELECT ` + selectColumns + `
		 FROM submissions
		 WHERE collector_name = $1
		 ORDER BY created_at DESC`

	return r.query(ctx, query, collectorName)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]models.Submission, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Submission, 0)
	for rows.Next() {
		var (
			s         models.Submission
			collector sql.NullString
			batchID   sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.FullName, &s.PhoneNumber, &collector, &s.IsDelivered, &batchID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		if collector.Valid {
			s.CollectorName = &collector.String
		}
		if batchID.Valid {
			s.BatchID = &batchID.String
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) CountByCollector(ctx context.Context) (map[string]models.SubmissionCounts, error) {
	query :=
		`SELECT COALESCE(collector_name, ''), COUNT(*), COUNT(*) FILTER (WHERE is_delivered)
		 FROM submissions
		 GROUP BY collector_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := map[string]models.SubmissionCounts{}
	for rows.Next() {
		var (
			name string
			c    models.SubmissionCounts
		)
		if err := rows.Scan(&name, &c.Total, &c.Delivered); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result[name] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Delete removes one submission. A batch it belonged to keeps its snapshot.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
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

func (r *PostgresRepository) ClaimPending(ctx context.Context, collectorName, batchID string) ([]string, error) {
	query :=
		`UPDATE submissions SET batch_id = $1
		 WHERE collector_name = $2 AND batch_id IS NULL AND is_delivered = FALSE
		 RETURNING id`

	rows, err := r.db.QueryContext(ctx, query, batchID, collectorName)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}

// SetDeliveredForBatch cascades a batch's delivery flag to its members and
// returns the number of submissions updated.
func (r *PostgresRepository) SetDeliveredForBatch(ctx context.Context, batchID string, delivered bool) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE submissions SET is_delivered = $2 WHERE batch_id = $1`, batchID, delivered)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
