package models

import "time"

type Submission struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	PhoneNumber   string    `json:"phone_number"`
	CollectorName *string   `json:"collector_name"`
	IsDelivered   bool      `json:"is_delivered"`
	BatchID       *string   `json:"batch_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// SubmissionState is derived from BatchID and IsDelivered.
type SubmissionState string

const (
	SubmissionUnbatched        SubmissionState = "unbatched"
	SubmissionBatchedPending   SubmissionState = "batched_pending"
	SubmissionBatchedDelivered SubmissionState = "batched_delivered"
)

func (s *Submission) State() SubmissionState {
	switch {
	case s.BatchID == nil:
		return SubmissionUnbatched
	case s.IsDelivered:
		return SubmissionBatchedDelivered
	default:
		return SubmissionBatchedPending
	}
}

// SubmissionCounts tallies submissions attributed to one collector.
type SubmissionCounts struct {
	Total     int
	Delivered int
}
