package submissions

import (
	"context"

	"github.com/nownpp/data-hub-entry/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Submission) (*models.Submission, error)
	// List returns every submission, newest first.
	List(ctx context.Context) ([]models.Submission, error)
	ListByCollector(ctx context.Context, collectorName string) ([]models.Submission, error)
	// CountByCollector tallies submissions per collector name. Anonymous
	// submissions are counted under "".
	CountByCollector(ctx context.Context) (map[string]models.SubmissionCounts, error)
	Delete(ctx context.Context, id string) error
	// ClaimPending attaches every unbatched, undelivered submission of the
	// collector to batchID and returns the ids it claimed. Rows already
	// claimed by a concurrent caller are skipped.
	ClaimPending(ctx context.Context, collectorName, batchID string) ([]string, error)
	SetDeliveredForBatch(ctx context.Context, batchID string, delivered bool) (int64, error)
}
