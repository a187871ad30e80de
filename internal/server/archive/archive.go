// Package archive stores a JSON settlement statement for every committed
// batch in S3-compatible object storage.
package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

// Statement is the archived record of one settlement. It repeats the unit
// prices used, so the totals can be audited without the settings history.
type Statement struct {
	BatchID           string    `json:"batch_id"`
	CollectorName     string    `json:"collector_name"`
	SubmissionIDs     []string  `json:"submission_ids"`
	SubmissionsCount  int       `json:"submissions_count"`
	ServicePrice      string    `json:"service_price"`
	CommissionPerUnit string    `json:"commission_per_unit"`
	TotalAmount       string    `json:"total_amount"`
	CommissionAmount  string    `json:"commission_amount"`
	NetAmount         string    `json:"net_amount"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewStatement(b *models.Batch, p *models.Pricing, submissionIDs []string) Statement {
	return Statement{
		BatchID:           b.ID,
		CollectorName:     b.CollectorName,
		SubmissionIDs:     submissionIDs,
		SubmissionsCount:  b.SubmissionsCount,
		ServicePrice:      p.ServicePrice.StringFixed(2),
		CommissionPerUnit: p.CommissionAmount.StringFixed(2),
		TotalAmount:       b.TotalAmount.StringFixed(2),
		CommissionAmount:  b.CommissionAmount.StringFixed(2),
		NetAmount:         b.NetAmount.StringFixed(2),
		CreatedAt:         b.CreatedAt,
	}
}

// Key returns the object key of a statement.
func (s Statement) Key() string {
	return fmt.Sprintf("statements/%s/%s.json", s.CollectorName, s.BatchID)
}

type Archiver interface {
	ArchiveStatement(ctx context.Context, s Statement) error
}

// NopArchiver discards statements. Used when no bucket is configured.
type NopArchiver struct{}

func (NopArchiver) ArchiveStatement(context.Context, Statement) error { return nil }
