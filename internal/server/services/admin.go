package services

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
)

// PricingInput is an admin pricing update. Rules: price > 0,
// 0 <= commission < price, both with at most two decimal places.
type PricingInput struct {
	ServicePrice     decimal.Decimal `json:"service_price"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
}

// AdminService holds the administrative operations. Callers authenticate
// the admin beforehand; the identity is passed in for the audit log.
type AdminService struct {
	repomanager repomanager.RepositoryManager
	validate    *validator.Validate
	logger      logging.Logger
	now         func() time.Time
}

func NewAdminService(m repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{
		repomanager: m,
		validate:    newValidator(),
		logger:      logger.With("module", "admin"),
		now:         time.Now,
	}
}

func (s *AdminService) GetPricing(ctx context.Context) (*models.Pricing, error) {
	p, err := s.repomanager.Settings().GetPricing(ctx)
	if err != nil {
		s.logger.Error(ctx, "read pricing", "error", err)
		return nil, common.ErrorInternal
	}
	return p, nil
}

// UpdatePricing validates and stores both pricing values together. Existing
// batches keep the amounts they were created with.
func (s *AdminService) UpdatePricing(ctx context.Context, admin *auth.Admin, in PricingInput) (*models.Pricing, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var updated *models.Pricing
	err := s.repomanager.WithTx(ctx, nil, func(ctx context.Context, repos repomanager.Repositories) error {
		p, err := repos.Settings().UpdatePricing(ctx, &models.Pricing{
			ServicePrice:     in.ServicePrice,
			CommissionAmount: in.CommissionAmount,
		})
		updated = p
		return err
	})
	if err != nil {
		s.logger.Error(ctx, "update pricing", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "pricing updated", "admin", admin.ID,
		"service_price", in.ServicePrice.String(), "commission_amount", in.CommissionAmount.String())
	return updated, nil
}

// SetBatchDelivered flips a batch's delivery flag and cascades it to every
// member submission in one transaction. delivered_at is set to now when
// delivered and cleared otherwise. Unknown batches yield common.ErrorNotFound.
func (s *AdminService) SetBatchDelivered(ctx context.Context, admin *auth.Admin, batchID string, delivered bool) (*models.Batch, error) {
	var (
		batch   *models.Batch
		updated int64
	)
	err := s.repomanager.WithTx(ctx, nil, func(ctx context.Context, repos repomanager.Repositories) error {
		b, err := repos.Batches().Get(ctx, batchID)
		if err != nil {
			return err
		}

		var at *time.Time
		if delivered {
			now := s.now()
			at = &now
		}
		if err := repos.Batches().SetDelivered(ctx, batchID, delivered, at); err != nil {
			return err
		}
		n, err := repos.Submissions().SetDeliveredForBatch(ctx, batchID, delivered)
		if err != nil {
			return err
		}

		b.IsDelivered = delivered
		b.DeliveredAt = at
		batch, updated = b, n
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "set batch delivered", "batch_id", batchID, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "batch delivery changed", "admin", admin.ID, "batch_id", batchID,
		"delivered", delivered, "submissions", updated)
	return batch, nil
}

// SetCollectorActive enables or disables a collector's login. Existing
// session tokens stay valid until they expire.
func (s *AdminService) SetCollectorActive(ctx context.Context, admin *auth.Admin, collectorID string, active bool) error {
	if err := s.repomanager.Collectors().SetActive(ctx, collectorID, active); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "set collector active", "collector_id", collectorID, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "collector active changed", "admin", admin.ID, "collector_id", collectorID, "active", active)
	return nil
}

// ListSubmissions returns every submission, newest first.
func (s *AdminService) ListSubmissions(ctx context.Context) ([]models.Submission, error) {
	subs, err := s.repomanager.Submissions().List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list submissions", "error", err)
		return nil, common.ErrorInternal
	}
	return subs, nil
}

// DeleteSubmission removes one submission. Batches it was part of keep their
// recorded count and amounts.
func (s *AdminService) DeleteSubmission(ctx context.Context, admin *auth.Admin, id string) error {
	if uuid.Validate(id) != nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Submissions().Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.logger.Error(ctx, "delete submission", "submission_id", id, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "submission deleted", "admin", admin.ID, "submission_id", id)
	return nil
}

// FinanceFigures prices a number of submissions, of which Delivered have
// been handed over, at the current pricing.
type FinanceFigures struct {
	Submissions     int             `json:"submissions"`
	Delivered       int             `json:"delivered"`
	Pending         int             `json:"pending"`
	Collected       decimal.Decimal `json:"collected"`
	Commission      decimal.Decimal `json:"commission"`
	ToDeliver       decimal.Decimal `json:"to_deliver"`
	DeliveredAmount decimal.Decimal `json:"delivered_amount"`
	PendingAmount   decimal.Decimal `json:"pending_amount"`
}

func computeFigures(c models.SubmissionCounts, p models.Pricing) FinanceFigures {
	all := ComputeSettlement(c.Total, p)
	delivered := ComputeSettlement(c.Delivered, p)
	pending := ComputeSettlement(c.Total-c.Delivered, p)
	return FinanceFigures{
		Submissions:     c.Total,
		Delivered:       c.Delivered,
		Pending:         c.Total - c.Delivered,
		Collected:       all.Total,
		Commission:      all.Commission,
		ToDeliver:       all.Net,
		DeliveredAmount: delivered.Net,
		PendingAmount:   pending.Net,
	}
}

type CollectorFinance struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	FinanceFigures
}

// FinanceReport is the admin money overview. Totals cover every submission,
// anonymous ones included; Collectors are ordered by submission count,
// highest first.
type FinanceReport struct {
	ServicePrice     decimal.Decimal    `json:"service_price"`
	CommissionAmount decimal.Decimal    `json:"commission_amount"`
	CollectorsCount  int                `json:"collectors_count"`
	Totals           FinanceFigures     `json:"totals"`
	Collectors       []CollectorFinance `json:"collectors"`
}

// CollectorFinances reports per-collector amounts at the current pricing.
// Unlike batches, these figures move whenever pricing changes.
func (s *AdminService) CollectorFinances(ctx context.Context) (*FinanceReport, error) {
	pricing, err := s.repomanager.Settings().GetPricing(ctx)
	if err != nil {
		s.logger.Error(ctx, "read pricing", "error", err)
		return nil, common.ErrorInternal
	}
	list, err := s.repomanager.Collectors().List(ctx)
	if err != nil {
		s.logger.Error(ctx, "list collectors", "error", err)
		return nil, common.ErrorInternal
	}
	counts, err := s.repomanager.Submissions().CountByCollector(ctx)
	if err != nil {
		s.logger.Error(ctx, "count submissions", "error", err)
		return nil, common.ErrorInternal
	}

	var total models.SubmissionCounts
	for _, c := range counts {
		total.Total += c.Total
		total.Delivered += c.Delivered
	}

	report := &FinanceReport{
		ServicePrice:     pricing.ServicePrice,
		CommissionAmount: pricing.CommissionAmount,
		CollectorsCount:  len(list),
		Totals:           computeFigures(total, *pricing),
		Collectors:       make([]CollectorFinance, 0, len(list)),
	}
	for _, c := range list {
		report.Collectors = append(report.Collectors, CollectorFinance{
			ID:             c.ID,
			Name:           c.Name,
			IsActive:       c.IsActive,
			FinanceFigures: computeFigures(counts[c.Name], *pricing),
		})
	}
	slices.SortStableFunc(report.Collectors, func(a, b CollectorFinance) int {
		return cmp.Compare(b.Submissions, a.Submissions)
	})

	return report, nil
}
