package api

import (
	"time"

	"github.com/shopspring/decimal"
)

type Collector struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LoginResponse struct {
	Collector Collector `json:"collector"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Submission struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	CollectorName *string   `json:"collector_name"`
	IsDelivered   bool      `json:"is_delivered"`
	BatchID       *string   `json:"batch_id"`
	CreatedAt     time.Time `json:"created_at"`
}

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

type CollectorData struct {
	CollectorName    string          `json:"collector_name"`
	Submissions      []Submission    `json:"submissions"`
	Batches          []Batch         `json:"batches"`
	Total            int             `json:"total"`
	ServicePrice     decimal.Decimal `json:"service_price"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

type BatchResult struct {
	Success bool   `json:"success"`
	BatchID string `json:"batch_id"`
	Count   int    `json:"count"`
}

type SubmissionRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Token       string `json:"token,omitempty"`
}
