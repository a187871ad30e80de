package collectors

import (
	"context"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, collector *models.Collector) (*models.Collector, error)
	GetByName(ctx context.Context, name string) (*models.Collector, error)
	// List returns every collector, oldest first.
	List(ctx context.Context) ([]models.Collector, error)
	SetActive(ctx context.Context, id string, active bool) error
}
