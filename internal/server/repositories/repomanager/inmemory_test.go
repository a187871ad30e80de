package repomanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestInMemory_CollectorUniqueName(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := m.Collectors().Create(ctx, &models.Collector{Name: "Sam", IsActive: true})
	require.NoError(t, err)

	_, err = m.Collectors().Create(ctx, &models.Collector{Name: "Sam"})
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = m.Collectors().Create(ctx, &models.Collector{Name: "sam"})
	assert.NoError(t, err, "names are case-sensitive")

	_, err = m.Collectors().GetByName(ctx, "nobody")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_WithTxRollsBack(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	boom := errors.New("boom")
	err := m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Collectors().Create(ctx, &models.Collector{Name: "Sam"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.Collectors().GetByName(ctx, "Sam")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInMemory_RollbackKeepsConcurrentWrites(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "A", PhoneNumber: "55501001", CollectorName: strPtr("Sam")})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Submissions().ClaimPending(ctx, "Sam", "b-1"); err != nil {
			return err
		}

		done := make(chan error)
		go func() {
			_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "B", PhoneNumber: "55501002", CollectorName: strPtr("Ana")})
			if err == nil {
				_, err = m.Collectors().Create(ctx, &models.Collector{Name: "Kim"})
			}
			done <- err
		}()
		if err := <-done; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ana, err := m.Submissions().ListByCollector(ctx, "Ana")
	require.NoError(t, err)
	assert.Len(t, ana, 1, "write made outside the transaction must survive its rollback")

	_, err = m.Collectors().GetByName(ctx, "Kim")
	assert.NoError(t, err)

	sam, err := m.Submissions().ListByCollector(ctx, "Sam")
	require.NoError(t, err)
	require.Len(t, sam, 1)
	assert.Nil(t, sam[0].BatchID, "claim must be rolled back")
}

func TestInMemory_CommitKeepsConcurrentWrites(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := m.Submissions().Create(ctx, &models.Submission{ID: "s-1", FullName: "A", PhoneNumber: "55501001", CollectorName: strPtr("Sam")})
	require.NoError(t, err)

	err = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		_, err := m.Submissions().Create(ctx, &models.Submission{ID: "s-2", FullName: "B", PhoneNumber: "55501002", CollectorName: strPtr("Sam")})
		if err != nil {
			return err
		}

		ids, err := repos.Submissions().ClaimPending(ctx, "Sam", "b-1")
		if err != nil {
			return err
		}
		assert.Equal(t, []string{"s-1"}, ids, "the transaction reads its own copy")
		_, err = repos.Batches().Create(ctx, &models.Batch{ID: "b-1", CollectorName: "Sam", SubmissionsCount: len(ids)})
		return err
	})
	require.NoError(t, err)

	subs, err := m.Submissions().ListByCollector(ctx, "Sam")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	byID := map[string]models.Submission{}
	for _, s := range subs {
		byID[s.ID] = s
	}
	require.NotNil(t, byID["s-1"].BatchID)
	assert.Equal(t, "b-1", *byID["s-1"].BatchID)
	assert.Nil(t, byID["s-2"].BatchID, "row created during the transaction stays pending")

	_, err = m.Batches().Get(ctx, "b-1")
	assert.NoError(t, err)
}

func TestInMemory_WithTxPanicDiscardsWrites(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
			_, _ = repos.Collectors().Create(ctx, &models.Collector{Name: "Sam"})
			panic("boom")
		})
	})

	_, err := m.Collectors().GetByName(ctx, "Sam")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		_, err := repos.Collectors().Create(ctx, &models.Collector{Name: "Sam"})
		return err
	})
	assert.NoError(t, err, "transactions are usable after a panic")
}

func TestInMemory_CommitRejectsDuplicateName(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	err := m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		if _, err := repos.Collectors().Create(ctx, &models.Collector{Name: "Sam"}); err != nil {
			return err
		}
		_, err := m.Collectors().Create(ctx, &models.Collector{Name: "Sam"})
		return err
	})
	assert.ErrorIs(t, err, common.ErrConflict)

	list, err := m.Collectors().List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInMemory_DeleteAndCount(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	for _, who := range []*string{strPtr("Sam"), strPtr("Sam"), nil} {
		_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "X", PhoneNumber: "55501001", CollectorName: who})
		require.NoError(t, err)
	}
	all, err := m.Submissions().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	counts, err := m.Submissions().CountByCollector(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.SubmissionCounts{"Sam": {Total: 2}, "": {Total: 1}}, counts)

	require.NoError(t, m.Submissions().Delete(ctx, all[0].ID))
	assert.ErrorIs(t, m.Submissions().Delete(ctx, all[0].ID), common.ErrorNotFound)

	all, err = m.Submissions().List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestInMemory_DeferredBatchReference(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "A", PhoneNumber: "55501001", CollectorName: strPtr("Sam")})
	require.NoError(t, err)

	err = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		_, err := repos.Submissions().ClaimPending(ctx, "Sam", "ghost-batch")
		return err
	})
	require.Error(t, err)

	subs, err := m.Submissions().ListByCollector(ctx, "Sam")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Nil(t, subs[0].BatchID, "claim must be rolled back")
}

func TestInMemory_ClaimAndDeliver(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	for _, who := range []string{"Sam", "Sam", "Kim"} {
		_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "X", PhoneNumber: "55501001", CollectorName: strPtr(who)})
		require.NoError(t, err)
	}
	_, err := m.Submissions().Create(ctx, &models.Submission{FullName: "Anon", PhoneNumber: "55501001"})
	require.NoError(t, err)

	err = m.WithTx(ctx, nil, func(ctx context.Context, repos Repositories) error {
		ids, err := repos.Submissions().ClaimPending(ctx, "Sam", "b-1")
		if err != nil {
			return err
		}
		assert.Len(t, ids, 2)
		_, err = repos.Batches().Create(ctx, &models.Batch{ID: "b-1", CollectorName: "Sam", SubmissionsCount: len(ids)})
		return err
	})
	require.NoError(t, err)

	ids, err := m.Submissions().ClaimPending(ctx, "Sam", "b-2")
	require.NoError(t, err)
	assert.Empty(t, ids)

	n, err := m.Submissions().SetDeliveredForBatch(ctx, "b-1", true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	now := time.Now()
	require.NoError(t, m.Batches().SetDelivered(ctx, "b-1", true, &now))
	assert.ErrorIs(t, m.Batches().SetDelivered(ctx, "nope", true, &now), common.ErrorNotFound)

	kim, err := m.Submissions().ListByCollector(ctx, "Kim")
	require.NoError(t, err)
	require.Len(t, kim, 1)
	assert.Equal(t, models.SubmissionUnbatched, kim[0].State())
}

func TestInMemory_NewestFirst(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	for _, id := range []string{"s-1", "s-2", "s-3"} {
		_, err := m.Submissions().Create(ctx, &models.Submission{ID: id, FullName: "X", PhoneNumber: "55501001", CollectorName: strPtr("Sam")})
		require.NoError(t, err)
	}

	subs, err := m.Submissions().ListByCollector(ctx, "Sam")
	require.NoError(t, err)
	require.Len(t, subs, 3)
	assert.Equal(t, []string{"s-3", "s-2", "s-1"}, []string{subs[0].ID, subs[1].ID, subs[2].ID})
}

func TestInMemory_Pricing(t *testing.T) {
	m := NewInMemoryRepositoryManager()
	ctx := context.Background()

	p, err := m.Settings().GetPricing(ctx)
	require.NoError(t, err)
	assert.True(t, p.ServicePrice.IsZero())

	_, err = m.Settings().UpdatePricing(ctx, &models.Pricing{ServicePrice: decimal.NewFromInt(25), CommissionAmount: decimal.NewFromInt(5)})
	require.NoError(t, err)

	p, err = m.Settings().GetPricing(ctx)
	require.NoError(t, err)
	assert.True(t, p.ServicePrice.Equal(decimal.NewFromInt(25)))
	assert.False(t, p.UpdatedAt.IsZero())
}
