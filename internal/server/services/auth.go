// Package services contains the server-side business logic. Services are
// transport-agnostic: they return sentinel errors from internal/common and
// leave status codes to the HTTP layer.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/config"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/passwords"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
)

// MinPasswordLength is counted in UTF-16 code units, the length browser
// clients report, so a character outside the BMP counts twice.
const MinPasswordLength = 4

func passwordLength(password string) int {
	return len(utf16.Encode([]rune(password)))
}

// AdminVerifier authenticates a platform administrator from an
// Authorization header value.
type AdminVerifier interface {
	VerifyAdmin(ctx context.Context, authorization string) (*auth.Admin, error)
}

type CollectorIdentity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LoginResult struct {
	Collector CollectorIdentity
	Token     string
	ExpiresAt time.Time
}

// AuthService logs collectors in and lets administrators create them.
type AuthService struct {
	repomanager     repomanager.RepositoryManager
	admins          AdminVerifier
	sessionSecret   []byte
	sessionValidity time.Duration
	metrics         *metrics.Metrics
	logger          logging.Logger
	now             func() time.Time
}

func NewAuthService(m repomanager.RepositoryManager, admins AdminVerifier, cfg *config.Config, mt *metrics.Metrics, logger logging.Logger) *AuthService {
	return &AuthService{
		repomanager:     m,
		admins:          admins,
		sessionSecret:   []byte(cfg.SessionSecret),
		sessionValidity: cfg.SessionValidity,
		metrics:         mt,
		logger:          logger.With("module", "auth"),
		now:             time.Now,
	}
}

// Login checks name and password and issues a session token.
//
// Errors: common.ErrValidation for empty input, common.ErrorNotFound for an
// unknown name, common.ErrForbidden for an inactive collector,
// common.ErrNoPasswordSet and common.ErrWrongPassword (both matching
// common.ErrUnauthenticated), common.ErrorInternal otherwise.
func (s *AuthService) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	if name == "" || password == "" {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return nil, fmt.Errorf("%w: name and password are required", common.ErrValidation)
	}

	collector, err := s.repomanager.Collectors().GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.RecordLogin(metrics.OutcomeUnknown)
			return nil, common.ErrorNotFound
		}
		s.metrics.RecordLogin(metrics.OutcomeError)
		s.logger.Error(ctx, "collector lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !collector.IsActive {
		s.metrics.RecordLogin(metrics.OutcomeInactive)
		return nil, common.ErrForbidden
	}

	if !collector.HasPassword() {
		s.metrics.RecordLogin(metrics.OutcomeNoPassword)
		return nil, common.ErrNoPasswordSet
	}

	if !passwords.Verify(password, *collector.PasswordHash) {
		s.metrics.RecordLogin(metrics.OutcomeWrongPass)
		return nil, common.ErrWrongPassword
	}

	expiresAt := s.now().Add(s.sessionValidity)
	token, err := auth.IssueSessionToken(auth.Session{
		CollectorID:   collector.ID,
		CollectorName: collector.Name,
		ExpiresAt:     expiresAt,
	}, s.sessionSecret)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		s.logger.Error(ctx, "issue session token", "error", err)
		return nil, common.ErrorInternal
	}

	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "collector logged in", "collector", collector.Name)

	return &LoginResult{
		Collector: CollectorIdentity{ID: collector.ID, Name: collector.Name},
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Create registers a collector on behalf of the administrator identified by
// authorization. The stored name is trimmed; names are unique and never
// change afterwards.
func (s *AuthService) Create(ctx context.Context, name, password, authorization string) error {
	admin, err := s.admins.VerifyAdmin(ctx, authorization)
	if err != nil {
		s.metrics.RecordCollectorCreated(metrics.OutcomeUnauthorized)
		return common.ErrorUnauthorized
	}

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		s.metrics.RecordCollectorCreated(metrics.OutcomeInvalid)
		return fmt.Errorf("%w: name and password are required", common.ErrValidation)
	}
	if passwordLength(password) < MinPasswordLength {
		s.metrics.RecordCollectorCreated(metrics.OutcomeInvalid)
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}

	hash, err := passwords.Hash(password)
	if err != nil {
		s.metrics.RecordCollectorCreated(metrics.OutcomeError)
		s.logger.Error(ctx, "hash password", "error", err)
		return common.ErrorInternal
	}

	_, err = s.repomanager.Collectors().Create(ctx, &models.Collector{
		Name:         name,
		IsActive:     true,
		PasswordHash: &hash,
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			s.metrics.RecordCollectorCreated(metrics.OutcomeConflict)
			return common.ErrConflict
		}
		s.metrics.RecordCollectorCreated(metrics.OutcomeError)
		s.logger.Error(ctx, "create collector", "error", err)
		return common.ErrorInternal
	}

	s.metrics.RecordCollectorCreated(metrics.OutcomeSuccess)
	s.logger.Info(ctx, "collector created", "collector", name, "admin", admin.ID)
	return nil
}
