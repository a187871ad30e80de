package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is an immutable financial snapshot of one collector's submissions.
// Only IsDelivered and DeliveredAt change after creation.
type Batch struct {
	ID               string          `json:"id"`
	CollectorName    string          `json:"collector_name"`
	SubmissionsCount int             `json:"submissions_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetAmount        decimal.Decimal `json:"net_amount"`
	IsDelivered      bool            `json:"is_delivered"`
	CreatedAt        time.Time       `json:"created_at"`
	DeliveredAt      *time.Time      `json:"delivered_at"`
}
