package settings

import (
	"context"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

type Repository interface {
	GetPricing(ctx context.Context) (*models.Pricing, error)
	UpdatePricing(ctx context.Context, p *models.Pricing) (*models.Pricing, error)
}
