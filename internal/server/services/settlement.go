package services

import (
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/shopspring/decimal"
)

// Settlement is the money snapshot of one batch.
type Settlement struct {
	Count      int
	Total      decimal.Decimal
	Commission decimal.Decimal
	Net        decimal.Decimal
}

// ComputeSettlement prices count submissions at p. Arithmetic is exact:
// total = count*price, commission = count*commission, net = total-commission.
func ComputeSettlement(count int, p models.Pricing) Settlement {
	n := decimal.NewFromInt(int64(count))
	total := n.Mul(p.ServicePrice)
	commission := n.Mul(p.CommissionAmount)
	return Settlement{
		Count:      count,
		Total:      total,
		Commission: commission,
		Net:        total.Sub(commission),
	}
}
