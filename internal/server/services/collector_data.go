package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/dbx"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/archive"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/config"
	"github.com/nownpp/data-hub-entry/internal/server/events"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// CollectorData is everything a collector sees about their own work.
type CollectorData struct {
	CollectorName    string              `json:"collector_name"`
	Submissions      []models.Submission `json:"submissions"`
	Batches          []models.Batch      `json:"batches"`
	Total            int                 `json:"total"`
	ServicePrice     decimal.Decimal     `json:"service_price"`
	CommissionAmount decimal.Decimal     `json:"commission_amount"`
}

type BatchResult struct {
	BatchID string
	Count   int
	Batch   *models.Batch
}

// CollectorDataService serves a collector's own submissions and batches and
// settles pending submissions into batches. Every call is scoped to the
// collector named in the session token.
type CollectorDataService struct {
	repomanager   repomanager.RepositoryManager
	sessionSecret []byte
	publisher     events.Publisher
	archiver      archive.Archiver
	metrics       *metrics.Metrics
	logger        logging.Logger
}

func NewCollectorDataService(m repomanager.RepositoryManager, cfg *config.Config, p events.Publisher, a archive.Archiver,
	mt *metrics.Metrics, logger logging.Logger) *CollectorDataService {
	if p == nil {
		p = events.NopPublisher{}
	}
	if a == nil {
		a = archive.NopArchiver{}
	}
	return &CollectorDataService{
		repomanager:   m,
		sessionSecret: []byte(cfg.SessionSecret),
		publisher:     p,
		archiver:      a,
		metrics:       mt,
		logger:        logger.With("module", "collector-data"),
	}
}

// Authenticate verifies a session token. It returns common.ErrMissingToken,
// common.ErrTokenExpired or common.ErrInvalidToken on failure.
func (s *CollectorDataService) Authenticate(token string) (*auth.Session, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}
	return auth.ParseSessionToken(token, s.sessionSecret)
}

// Fetch returns the caller's submissions and batches, newest first, with the
// current pricing.
func (s *CollectorDataService) Fetch(ctx context.Context, token string) (*CollectorData, error) {
	session, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	name := session.CollectorName

	subs, err := s.repomanager.Submissions().ListByCollector(ctx, name)
	if err != nil {
		s.logger.Error(ctx, "list submissions", "collector", name, "error", err)
		return nil, common.ErrorInternal
	}

	batches, err := s.repomanager.Batches().ListByCollector(ctx, name)
	if err != nil {
		s.logger.Error(ctx, "list batches", "collector", name, "error", err)
		return nil, common.ErrorInternal
	}

	pricing, err := s.repomanager.Settings().GetPricing(ctx)
	if err != nil {
		s.logger.Error(ctx, "read pricing", "error", err)
		return nil, common.ErrorInternal
	}

	if subs == nil {
		subs = []models.Submission{}
	}
	if batches == nil {
		batches = []models.Batch{}
	}

	return &CollectorData{
		CollectorName:    name,
		Submissions:      subs,
		Batches:          batches,
		Total:            len(subs),
		ServicePrice:     pricing.ServicePrice,
		CommissionAmount: pricing.CommissionAmount,
	}, nil
}

// CreateBatch settles every unbatched, undelivered submission of the caller
// into a new batch.
//
// The claim, the pricing read and the batch insert share one transaction.
// Rows are claimed by a conditional update, so concurrent calls for the same
// collector never claim a submission twice; the loser sees nothing left and
// gets common.ErrNothingToBatch. Totals come from the claimed row count.
// Any store failure rolls everything back and yields common.ErrorInternal.
func (s *CollectorDataService) CreateBatch(ctx context.Context, token string) (*BatchResult, error) {
	session, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	name := session.CollectorName

	var (
		batch   *models.Batch
		pricing *models.Pricing
		claimed []string
	)
	batchID := uuid.NewString()

	err = s.repomanager.WithTx(ctx, dbx.ReadCommitted, func(ctx context.Context, repos repomanager.Repositories) error {
		ids, err := repos.Submissions().ClaimPending(ctx, name, batchID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return common.ErrNothingToBatch
		}

		p, err := repos.Settings().GetPricing(ctx)
		if err != nil {
			return err
		}

		st := ComputeSettlement(len(ids), *p)
		b, err := repos.Batches().Create(ctx, &models.Batch{
			ID:               batchID,
			CollectorName:    name,
			SubmissionsCount: st.Count,
			TotalAmount:      st.Total,
			CommissionAmount: st.Commission,
			NetAmount:        st.Net,
		})
		if err != nil {
			return err
		}

		batch, pricing, claimed = b, p, ids
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNothingToBatch) {
			return nil, common.ErrNothingToBatch
		}
		s.logger.Error(ctx, "create batch", "collector", name, "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.RecordBatch(batch.SubmissionsCount, batch.NetAmount)
	s.logger.Info(ctx, "batch created", "collector", name, "batch_id", batch.ID,
		"count", batch.SubmissionsCount, "net", batch.NetAmount.String())

	s.afterCommit(ctx, batch, pricing, claimed)

	return &BatchResult{BatchID: batch.ID, Count: batch.SubmissionsCount, Batch: batch}, nil
}

// sideEffectTimeout bounds the post-commit work once it no longer follows
// the request context.
const sideEffectTimeout = 10 * time.Second

// afterCommit runs the best-effort side effects of a committed batch.
// Failures are logged and counted only. The batch exists whether or not the
// caller is still connected, so cancellation of ctx does not stop them.
func (s *CollectorDataService) afterCommit(ctx context.Context, b *models.Batch, p *models.Pricing, ids []string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := s.publisher.PublishBatchCreated(ctx, events.NewBatchCreated(b)); err != nil {
		s.metrics.RecordSideEffectFailure("event")
		s.logger.Warn(ctx, "publish batch event", "batch_id", b.ID, "error", err)
	}
	if err := s.archiver.ArchiveStatement(ctx, archive.NewStatement(b, p, ids)); err != nil {
		s.metrics.RecordSideEffectFailure("statement")
		s.logger.Warn(ctx, "archive batch statement", "batch_id", b.ID, "error", err)
	}
}
