package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nownpp/data-hub-entry/internal/logging"
	"github.com/nownpp/data-hub-entry/internal/server/archive"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/config"
	"github.com/nownpp/data-hub-entry/internal/server/events"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/batches"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/collectors"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/settings"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/submissions"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testSessionSecret = "test-session-secret"
	testAdminSecret   = "test-admin-secret"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionSecret = testSessionSecret
	cfg.AdminSecret = testAdminSecret
	return cfg
}

func adminHeader(t *testing.T) string {
	t.Helper()
	tok, err := auth.IssueAdminToken(auth.Admin{ID: "admin-1", Email: "ops@example.com"}, []byte(testAdminSecret), time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

var testAdmin = &auth.Admin{ID: "admin-1", Email: "ops@example.com"}

type env struct {
	rm          *repomanager.InMemoryRepositoryManager
	cfg         *config.Config
	metrics     *metrics.Metrics
	auth        *AuthService
	data        *CollectorDataService
	admin       *AdminService
	submissions *SubmissionService
	publisher   *recordingPublisher
	archiver    *recordingArchiver
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWith(t, repomanager.NewInMemoryRepositoryManager(), nil)
}

// newEnvWith builds services over store; rm is the in-memory manager that
// backs it (used for assertions) and may equal store.
func newEnvWith(t *testing.T, rm *repomanager.InMemoryRepositoryManager, store repomanager.RepositoryManager) *env {
	t.Helper()
	if store == nil {
		store = rm
	}
	cfg := testConfig()
	mt := metrics.New()
	log := logging.Nop{}
	pub := &recordingPublisher{}
	arch := &recordingArchiver{}
	return &env{
		rm:          rm,
		cfg:         cfg,
		metrics:     mt,
		auth:        NewAuthService(store, auth.NewPlatformAdminVerifier(testAdminSecret), cfg, mt, log),
		data:        NewCollectorDataService(store, cfg, pub, arch, mt, log),
		admin:       NewAdminService(store, log),
		submissions: NewSubmissionService(store, cfg, mt, log),
		publisher:   pub,
		archiver:    arch,
	}
}

func (e *env) createCollector(t *testing.T, name, password string) {
	t.Helper()
	require.NoError(t, e.auth.Create(context.Background(), name, password, adminHeader(t)))
}

func (e *env) login(t *testing.T, name, password string) string {
	t.Helper()
	res, err := e.auth.Login(context.Background(), name, password)
	require.NoError(t, err)
	return res.Token
}

func (e *env) setPricing(t *testing.T, price, commission string) {
	t.Helper()
	_, err := e.admin.UpdatePricing(context.Background(), testAdmin, PricingInput{
		ServicePrice:     decimal.RequireFromString(price),
		CommissionAmount: decimal.RequireFromString(commission),
	})
	require.NoError(t, err)
}

func (e *env) addSubmissions(t *testing.T, collector string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		name := collector
		_, err := e.rm.Submissions().Create(context.Background(), &models.Submission{
			FullName:      "Person",
			PhoneNumber:   "+1 555 0100",
			CollectorName: &name,
		})
		require.NoError(t, err)
	}
}

type recordingPublisher struct {
	mu      sync.Mutex
	events  []events.BatchCreated
	ctxErrs []error
	err     error
}

func (p *recordingPublisher) PublishBatchCreated(ctx context.Context, ev events.BatchCreated) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingArchiver struct {
	mu         sync.Mutex
	statements []archive.Statement
	ctxErrs    []error
	err        error
}

func (a *recordingArchiver) ArchiveStatement(ctx context.Context, s archive.Statement) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctxErrs = append(a.ctxErrs, ctx.Err())
	if a.err != nil {
		return a.err
	}
	a.statements = append(a.statements, s)
	return nil
}

var errStore = errors.New("store unavailable")

// faultyManager wraps the in-memory manager and injects store failures.
type faultyManager struct {
	*repomanager.InMemoryRepositoryManager
	failCollectors  bool
	failBatchCreate bool
	failPricing     bool
	failSubmissions bool
}

func (m *faultyManager) Collectors() collectors.Repository {
	if m.failCollectors {
		return failingCollectors{}
	}
	return m.InMemoryRepositoryManager.Collectors()
}

func (m *faultyManager) Submissions() submissions.Repository {
	if m.failSubmissions {
		return failingSubmissions{Repository: m.InMemoryRepositoryManager.Submissions()}
	}
	return m.InMemoryRepositoryManager.Submissions()
}

func (m *faultyManager) Settings() settings.Repository {
	if m.failPricing {
		return failingSettings{}
	}
	return m.InMemoryRepositoryManager.Settings()
}

func (m *faultyManager) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	return m.InMemoryRepositoryManager.WithTx(ctx, opts, func(ctx context.Context, repos repomanager.Repositories) error {
		return fn(ctx, faultyRepos{Repositories: repos, m: m})
	})
}

type faultyRepos struct {
	repomanager.Repositories
	m *faultyManager
}

func (r faultyRepos) Batches() batches.Repository {
	if r.m.failBatchCreate {
		return failingBatches{Repository: r.Repositories.Batches()}
	}
	return r.Repositories.Batches()
}

func (r faultyRepos) Settings() settings.Repository {
	if r.m.failPricing {
		return failingSettings{}
	}
	return r.Repositories.Settings()
}

type failingCollectors struct{}

func (failingCollectors) Create(context.Context, *models.Collector) (*models.Collector, error) {
	return nil, errStore
}
func (failingCollectors) GetByName(context.Context, string) (*models.Collector, error) {
	return nil, errStore
}
func (failingCollectors) List(context.Context) ([]models.Collector, error) {
	return nil, errStore
}
func (failingCollectors) SetActive(context.Context, string, bool) error { return errStore }

type failingSubmissions struct {
	submissions.Repository
}

func (failingSubmissions) List(context.Context) ([]models.Submission, error) {
	return nil, errStore
}
func (failingSubmissions) CountByCollector(context.Context) (map[string]models.SubmissionCounts, error) {
	return nil, errStore
}
func (failingSubmissions) Delete(context.Context, string) error { return errStore }

type failingBatches struct {
	batches.Repository
}

func (failingBatches) Create(context.Context, *models.Batch) (*models.Batch, error) {
	return nil, errStore
}

type failingSettings struct{}

func (failingSettings) GetPricing(context.Context) (*models.Pricing, error) { return nil, errStore }
func (failingSettings) UpdatePricing(context.Context, *models.Pricing) (*models.Pricing, error) {
	return nil, errStore
}

// cancelAfterCommit cancels the caller's context once a transaction has
// committed, as a client disconnecting right after the write would.
type cancelAfterCommit struct {
	*repomanager.InMemoryRepositoryManager
	cancel context.CancelFunc
}

func (m *cancelAfterCommit) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, repos repomanager.Repositories) error) error {
	err := m.InMemoryRepositoryManager.WithTx(ctx, opts, fn)
	if err == nil {
		m.cancel()
	}
	return err
}
