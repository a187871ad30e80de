// Package settings reads and writes the global pricing kept in
// system_settings.
package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/dbx"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/shopspring/decimal"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetPricing returns both pricing keys. UpdatedAt is the later of the two
// rows. A missing key yields common.ErrorNotFound.
func (r *PostgresRepository) GetPricing(ctx context.Context) (*models.Pricing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM system_settings WHERE key IN ($1, $2)`,
		models.SettingServicePrice, models.SettingCommissionAmount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var (
		p                         models.Pricing
		havePrice, haveCommission bool
	)
	for rows.Next() {
		var (
			key, value string
			updatedAt  time.Time
		)
		if err := rows.Scan(&key, &value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		d, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("setting %s: bad value %q: %w", key, value, err)
		}
		switch key {
		case models.SettingServicePrice:
			p.ServicePrice, havePrice = d, true
		case models.SettingCommissionAmount:
			p.CommissionAmount, haveCommission = d, true
		}
		if updatedAt.After(p.UpdatedAt) {
			p.UpdatedAt = updatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	if !havePrice || !haveCommission {
		return nil, common.ErrorNotFound
	}

	return &p, nil
}

// UpdatePricing writes both keys with one shared timestamp. Run it inside a
// transaction so readers never observe half an update.
func (r *PostgresRepository) UpdatePricing(ctx context.Context, p *models.Pricing) (*models.Pricing, error) {
	query :=
		`INSERT INTO system_settings (key, value, updated_at)
		 VALUES ($1, $2, NOW()), ($3, $4, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		 RETURNING updated_at`

	rows, err := r.db.QueryContext(ctx, query,
		models.SettingServicePrice, p.ServicePrice.String(),
		models.SettingCommissionAmount, p.CommissionAmount.String())
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var updatedAt time.Time
		if err := rows.Scan(&updatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		p.UpdatedAt = updatedAt
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return p, nil
}
