package repomanager

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/batches"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/collectors"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/settings"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/submissions"
)

// memState is the whole in-memory dataset. Values are stored by value so a
// shallow map copy is a consistent snapshot.
type memState struct {
	collectors  map[string]models.Collector // by id
	submissions map[string]models.Submission
	batches     map[string]models.Batch
	order       map[string]int64 // insertion sequence, breaks created_at ties
	seq         int64
	pricing     models.Pricing

	// touched is non-nil only on a transaction's private copy and records
	// which keys the transaction wrote.
	touched *touchSet
}

type touchSet struct {
	collectors  map[string]struct{}
	submissions map[string]struct{}
	batches     map[string]struct{}
	pricing     bool
}

func newMemState() *memState {
	return &memState{
		collectors:  map[string]models.Collector{},
		submissions: map[string]models.Submission{},
		batches:     map[string]models.Batch{},
		order:       map[string]int64{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		collectors:  maps.Clone(s.collectors),
		submissions: maps.Clone(s.submissions),
		batches:     maps.Clone(s.batches),
		order:       maps.Clone(s.order),
		seq:         s.seq,
		pricing:     s.pricing,
	}
}

func (s *memState) next(id string) {
	s.seq++
	s.order[id] = s.seq
}

func (s *memState) putCollector(c models.Collector) {
	if _, ok := s.order[c.ID]; !ok {
		s.next(c.ID)
	}
	s.collectors[c.ID] = c
	if s.touched != nil {
		s.touched.collectors[c.ID] = struct{}{}
	}
}

func (s *memState) putSubmission(sub models.Submission) {
	if _, ok := s.order[sub.ID]; !ok {
		s.next(sub.ID)
	}
	s.submissions[sub.ID] = sub
	if s.touched != nil {
		s.touched.submissions[sub.ID] = struct{}{}
	}
}

func (s *memState) deleteSubmission(id string) {
	delete(s.submissions, id)
	delete(s.order, id)
	if s.touched != nil {
		s.touched.submissions[id] = struct{}{}
	}
}

func (s *memState) putBatch(b models.Batch) {
	if _, ok := s.order[b.ID]; !ok {
		s.next(b.ID)
	}
	s.batches[b.ID] = b
	if s.touched != nil {
		s.touched.batches[b.ID] = struct{}{}
	}
}

func (s *memState) setPricing(p models.Pricing) {
	s.pricing = p
	if s.touched != nil {
		s.touched.pricing = true
	}
}

// apply copies the keys tx wrote onto s. Keys tx never touched keep
// whatever s holds, including writes made after tx began.
func (s *memState) apply(tx *memState) {
	t := tx.touched
	mergeTouched(s, s.collectors, tx, tx.collectors, t.collectors)
	mergeTouched(s, s.submissions, tx, tx.submissions, t.submissions)
	mergeTouched(s, s.batches, tx, tx.batches, t.batches)
	if t.pricing {
		s.pricing = tx.pricing
	}
}

func mergeTouched[T any](s *memState, dst map[string]T, tx *memState, src map[string]T, touched map[string]struct{}) {
	ids := slices.SortedFunc(maps.Keys(touched), func(a, b string) int {
		return cmp.Compare(tx.order[a], tx.order[b])
	})
	for _, id := range ids {
		v, ok := src[id]
		if !ok {
			delete(dst, id)
			delete(s.order, id)
			continue
		}
		dst[id] = v
		if _, seen := s.order[id]; !seen {
			s.next(id)
		}
	}
}

// check enforces the constraints PostgreSQL checks at commit: collector
// names are unique and batch references resolve.
func (s *memState) check() error {
	names := make(map[string]struct{}, len(s.collectors))
	for _, c := range s.collectors {
		if _, dup := names[c.Name]; dup {
			return common.ErrConflict
		}
		names[c.Name] = struct{}{}
	}
	for _, sub := range s.submissions {
		if sub.BatchID == nil {
			continue
		}
		if _, ok := s.batches[*sub.BatchID]; !ok {
			return fmt.Errorf("db error: submission %s references missing batch %s", sub.ID, *sub.BatchID)
		}
	}
	return nil
}

// memStore is one view of the data: the shared live state, or a
// transaction's private copy of it.
type memStore struct {
	mu    sync.Mutex
	state *memState
	clock func() time.Time
}

func (st *memStore) locked(fn func(s *memState) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return fn(st.state)
}

func (st *memStore) now() time.Time {
	return st.clock()
}

// memRepositories binds every repository to one memStore.
type memRepositories struct {
	st *memStore
}

func (r memRepositories) Collectors() collectors.Repository {
	return memCollectors{r.st}
}

func (r memRepositories) Submissions() submissions.Repository {
	return memSubmissions{r.st}
}

func (r memRepositories) Batches() batches.Repository {
	return memBatches{r.st}
}

func (r memRepositories) Settings() settings.Repository {
	return memSettings{r.st}
}

// InMemoryRepositoryManager keeps all data in process memory. Outside WithTx
// every call is individually atomic. Transactions are serialized with each
// other; each works on a private copy of the data and, on commit, writes
// back only the keys it changed, so concurrent non-transactional writes
// survive both commit and rollback.
type InMemoryRepositoryManager struct {
	memRepositories
	txMu sync.Mutex
	now  func() time.Time
}

func NewInMemoryRepositoryManager() *InMemoryRepositoryManager {
	m := &InMemoryRepositoryManager{now: time.Now}
	m.memRepositories = memRepositories{st: &memStore{state: newMemState(), clock: m.clock}}
	return m
}

func (m *InMemoryRepositoryManager) clock() time.Time {
	return m.now()
}

func (m *InMemoryRepositoryManager) RunMigrations(ctx context.Context) error {
	return nil
}

func (m *InMemoryRepositoryManager) Ping(ctx context.Context) error {
	return nil
}

// WithTx runs fn against a private copy of the store. The copy is discarded
// when fn fails or panics. On success its writes are merged into the live
// state, unless the merged state breaks a commit-time constraint.
func (m *InMemoryRepositoryManager) WithTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, repos Repositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	live := m.st
	live.mu.Lock()
	private := live.state.clone()
	live.mu.Unlock()
	private.touched = &touchSet{
		collectors:  map[string]struct{}{},
		submissions: map[string]struct{}{},
		batches:     map[string]struct{}{},
	}

	if err := fn(ctx, memRepositories{st: &memStore{state: private, clock: m.clock}}); err != nil {
		return err
	}

	return live.locked(func(s *memState) error {
		merged := s.clone()
		merged.apply(private)
		if err := merged.check(); err != nil {
			return err
		}
		live.state = merged
		return nil
	})
}

// newestFirst orders items by created_at, then insertion sequence, descending.
func newestFirst[T any](s *memState, items []T, created func(T) time.Time, id func(T) string) {
	slices.SortFunc(items, func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(s.order[id(b)], s.order[id(a)])
	})
}

type memCollectors struct{ st *memStore }

func (r memCollectors) Create(ctx context.Context, c *models.Collector) (*models.Collector, error) {
	err := r.st.locked(func(s *memState) error {
		for _, existing := range s.collectors {
			if existing.Name == c.Name {
				return common.ErrConflict
			}
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		c.CreatedAt = r.st.now()
		s.putCollector(*c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r memCollectors) GetByName(ctx context.Context, name string) (*models.Collector, error) {
	var found *models.Collector
	err := r.st.locked(func(s *memState) error {
		for _, c := range s.collectors {
			if c.Name == name {
				found = &c
				return nil
			}
		}
		return common.ErrorNotFound
	})
	return found, err
}

func (r memCollectors) List(ctx context.Context) ([]models.Collector, error) {
	result := make([]models.Collector, 0)
	_ = r.st.locked(func(s *memState) error {
		for _, c := range s.collectors {
			result = append(result, c)
		}
		slices.SortFunc(result, func(a, b models.Collector) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(s.order[a.ID], s.order[b.ID])
		})
		return nil
	})
	return result, nil
}

func (r memCollectors) SetActive(ctx context.Context, id string, active bool) error {
	return r.st.locked(func(s *memState) error {
		c, ok := s.collectors[id]
		if !ok {
			return common.ErrorNotFound
		}
		c.IsActive = active
		s.putCollector(c)
		return nil
	})
}

type memSubmissions struct{ st *memStore }

func (r memSubmissions) Create(ctx context.Context, sub *models.Submission) (*models.Submission, error) {
	_ = r.st.locked(func(s *memState) error {
		if sub.ID == "" {
			sub.ID = uuid.NewString()
		}
		sub.CreatedAt = r.st.now()
		s.putSubmission(*sub)
		return nil
	})
	return sub, nil
}

func (r memSubmissions) list(match func(models.Submission) bool) []models.Submission {
	result := make([]models.Submission, 0)
	_ = r.st.locked(func(s *memState) error {
		for _, sub := range s.submissions {
			if match(sub) {
				result = append(result, sub)
			}
		}
		newestFirst(s, result,
			func(x models.Submission) time.Time { return x.CreatedAt },
			func(x models.Submission) string { return x.ID })
		return nil
	})
	return result
}

func (r memSubmissions) List(ctx context.Context) ([]models.Submission, error) {
	return r.list(func(models.Submission) bool { return true }), nil
}

func (r memSubmissions) ListByCollector(ctx context.Context, collectorName string) ([]models.Submission, error) {
	return r.list(func(sub models.Submission) bool {
		return sub.CollectorName != nil && *sub.CollectorName == collectorName
	}), nil
}

func (r memSubmissions) CountByCollector(ctx context.Context) (map[string]models.SubmissionCounts, error) {
	result := map[string]models.SubmissionCounts{}
	_ = r.st.locked(func(s *memState) error {
		for _, sub := range s.submissions {
			var name string
			if sub.CollectorName != nil {
				name = *sub.CollectorName
			}
			c := result[name]
			c.Total++
			if sub.IsDelivered {
				c.Delivered++
			}
			result[name] = c
		}
		return nil
	})
	return result, nil
}

func (r memSubmissions) Delete(ctx context.Context, id string) error {
	return r.st.locked(func(s *memState) error {
		if _, ok := s.submissions[id]; !ok {
			return common.ErrorNotFound
		}
		s.deleteSubmission(id)
		return nil
	})
}

func (r memSubmissions) ClaimPending(ctx context.Context, collectorName, batchID string) ([]string, error) {
	var ids []string
	_ = r.st.locked(func(s *memState) error {
		for _, sub := range s.submissions {
			if sub.CollectorName == nil || *sub.CollectorName != collectorName || sub.BatchID != nil || sub.IsDelivered {
				continue
			}
			b := batchID
			sub.BatchID = &b
			s.putSubmission(sub)
			ids = append(ids, sub.ID)
		}
		return nil
	})
	return ids, nil
}

func (r memSubmissions) SetDeliveredForBatch(ctx context.Context, batchID string, delivered bool) (int64, error) {
	var n int64
	_ = r.st.locked(func(s *memState) error {
		for _, sub := range s.submissions {
			if sub.BatchID != nil && *sub.BatchID == batchID {
				sub.IsDelivered = delivered
				s.putSubmission(sub)
				n++
			}
		}
		return nil
	})
	return n, nil
}

type memBatches struct{ st *memStore }

func (r memBatches) Create(ctx context.Context, b *models.Batch) (*models.Batch, error) {
	err := r.st.locked(func(s *memState) error {
		if _, ok := s.batches[b.ID]; ok {
			return fmt.Errorf("db error: duplicate batch id %s", b.ID)
		}
		b.CreatedAt = r.st.now()
		b.IsDelivered = false
		b.DeliveredAt = nil
		s.putBatch(*b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r memBatches) Get(ctx context.Context, id string) (*models.Batch, error) {
	var found *models.Batch
	err := r.st.locked(func(s *memState) error {
		b, ok := s.batches[id]
		if !ok {
			return common.ErrorNotFound
		}
		found = &b
		return nil
	})
	return found, err
}

func (r memBatches) ListByCollector(ctx context.Context, collectorName string) ([]models.Batch, error) {
	result := make([]models.Batch, 0)
	_ = r.st.locked(func(s *memState) error {
		for _, b := range s.batches {
			if b.CollectorName == collectorName {
				result = append(result, b)
			}
		}
		newestFirst(s, result,
			func(x models.Batch) time.Time { return x.CreatedAt },
			func(x models.Batch) string { return x.ID })
		return nil
	})
	return result, nil
}

func (r memBatches) SetDelivered(ctx context.Context, id string, delivered bool, at *time.Time) error {
	return r.st.locked(func(s *memState) error {
		b, ok := s.batches[id]
		if !ok {
			return common.ErrorNotFound
		}
		b.IsDelivered = delivered
		b.DeliveredAt = at
		s.putBatch(b)
		return nil
	})
}

type memSettings struct{ st *memStore }

func (r memSettings) GetPricing(ctx context.Context) (*models.Pricing, error) {
	var p models.Pricing
	_ = r.st.locked(func(s *memState) error {
		p = s.pricing
		return nil
	})
	return &p, nil
}

func (r memSettings) UpdatePricing(ctx context.Context, p *models.Pricing) (*models.Pricing, error) {
	_ = r.st.locked(func(s *memState) error {
		p.UpdatedAt = r.st.now()
		s.setPricing(*p)
		return nil
	})
	return p, nil
}
