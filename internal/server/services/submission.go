package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/config"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
)

type SubmissionInput struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=100"`
	PhoneNumber string `json:"phone_number" validate:"required,min=8,max=20,phone"`
	Token       string `json:"token,omitempty" validate:"-"`
}

// SubmissionService accepts records from the public form.
type SubmissionService struct {
	repomanager   repomanager.RepositoryManager
	sessionSecret []byte
	validate      *validator.Validate
	metrics       *metrics.Metrics
	logger        logging.Logger
}

func NewSubmissionService(m repomanager.RepositoryManager, cfg *config.Config, mt *metrics.Metrics, logger logging.Logger) *SubmissionService {
	return &SubmissionService{
		repomanager:   m,
		sessionSecret: []byte(cfg.SessionSecret),
		validate:      newValidator(),
		metrics:       mt,
		logger:        logger.With("module", "submissions"),
	}
}

// Submit stores a submission. Without a token it is anonymous; with one the
// token must verify and the submission is attributed to its collector.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) (*models.Submission, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	var collectorName *string
	if in.Token != "" {
		session, err := auth.ParseSessionToken(in.Token, s.sessionSecret)
		if err != nil {
			return nil, err
		}
		collectorName = &session.CollectorName
	}

	sub, err := s.repomanager.Submissions().Create(ctx, &models.Submission{
		FullName:      in.FullName,
		PhoneNumber:   in.PhoneNumber,
		CollectorName: collectorName,
	})
	if err != nil {
		s.logger.Error(ctx, "create submission", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.RecordSubmission(collectorName != nil)
	return sub, nil
}
