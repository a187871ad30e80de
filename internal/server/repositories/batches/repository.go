package batches

import (
	"context"
	"time"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Batch) (*models.Batch, error)
	Get(ctx context.Context, id string) (*models.Batch, error)
	ListByCollector(ctx context.Context, collectorName string) ([]models.Batch, error)
	SetDelivered(ctx context.Context, id string, delivered bool, at *time.Time) error
}
