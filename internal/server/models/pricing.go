package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings keys in system_settings.
const (
	SettingServicePrice     = "service_price"
	SettingCommissionAmount = "commission_amount"
)

// Pricing is the per-submission price and the commission paid to the
// collector out of it.
type Pricing struct {
	ServicePrice     decimal.Decimal
	CommissionAmount decimal.Decimal
	UpdatedAt        time.Time
}
