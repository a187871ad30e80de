// Package events publishes settlement events for downstream consumers
// (payout reconciliation, reporting).
package events

import (
	"context"
	"time"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

const TypeBatchCreated = "batch.created"

// BatchCreated is the payload of a batch.created event. Amounts are decimal
// strings so consumers never see float rounding.
type BatchCreated struct {
	Type             string    `json:"type"`
	BatchID          string    `json:"batch_id"`
	CollectorName    string    `json:"collector_name"`
	SubmissionsCount int       `json:"submissions_count"`
	TotalAmount      string    `json:"total_amount"`
	CommissionAmount string    `json:"commission_amount"`
	NetAmount        string    `json:"net_amount"`
	CreatedAt        time.Time `json:"created_at"`
}

func NewBatchCreated(b *models.Batch) BatchCreated {
	return BatchCreated{
		Type:             TypeBatchCreated,
		BatchID:          b.ID,
		CollectorName:    b.CollectorName,
		SubmissionsCount: b.SubmissionsCount,
		TotalAmount:      b.TotalAmount.StringFixed(2),
		CommissionAmount: b.CommissionAmount.StringFixed(2),
		NetAmount:        b.NetAmount.StringFixed(2),
		CreatedAt:        b.CreatedAt,
	}
}

type Publisher interface {
	PublishBatchCreated(ctx context.Context, event BatchCreated) error
	Close() error
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishBatchCreated(context.Context, BatchCreated) error { return nil }
func (NopPublisher) Close() error                                            { return nil }
