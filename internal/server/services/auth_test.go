package services

import (
	"context"
	"testing"
	"time"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/nownpp/data-hub-entry/internal/server/auth"
	"github.com/nownpp/data-hub-entry/internal/server/metrics"
	"github.com/nownpp/data-hub-entry/internal/server/models"
	"github.com/nownpp/data-hub-entry/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_Success(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "Sam", "s3cret")

	before := time.Now()
	res, err := e.auth.Login(context.Background(), "Sam", "s3cret")
	require.NoError(t, err)

	assert.Equal(t, "Sam", res.Collector.Name)
	assert.NotEmpty(t, res.Collector.ID)
	assert.WithinDuration(t, before.Add(24*time.Hour), res.ExpiresAt, time.Minute)

	session, err := auth.ParseSessionToken(res.Token, []byte(testSessionSecret))
	require.NoError(t, err)
	assert.Equal(t, res.Collector.ID, session.CollectorID)
	assert.Equal(t, "Sam", session.CollectorName)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.LoginAttempts.WithLabelValues(metrics.OutcomeSuccess)))
}

func TestLogin_Failures(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "Sam", "s3cret")

	cases := []struct {
		name     string
		user     string
		password string
		want     error
	}{
		{"empty name", "", "s3cret", common.ErrValidation},
		{"empty password", "Sam", "", common.ErrValidation},
		{"unknown collector", "Kim", "s3cret", common.ErrorNotFound},
		{"case sensitive name", "sam", "s3cret", common.ErrorNotFound},
		{"wrong password", "Sam", "nope", common.ErrWrongPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := e.auth.Login(context.Background(), tc.user, tc.password)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, res, "no token on failure")
		})
	}
}

func TestLogin_WrongPasswordIsUnauthenticated(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "Sam", "s3cret")

	res, err := e.auth.Login(context.Background(), "Sam", "s3cret!")
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
	assert.Nil(t, res)
}

func TestLogin_InactiveIsForbiddenRegardlessOfPassword(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "Sam", "s3cret")

	c, err := e.rm.Collectors().GetByName(context.Background(), "Sam")
	require.NoError(t, err)
	require.NoError(t, e.admin.SetCollectorActive(context.Background(), testAdmin, c.ID, false))

	for _, pw := range []string{"s3cret", "wrong"} {
		res, err := e.auth.Login(context.Background(), "Sam", pw)
		assert.ErrorIs(t, err, common.ErrForbidden, pw)
		assert.Nil(t, res)
	}
}

func TestLogin_NoPasswordConfigured(t *testing.T) {
	e := newEnv(t)
	_, err := e.rm.Collectors().Create(context.Background(), &models.Collector{Name: "Sam", IsActive: true})
	require.NoError(t, err)

	_, err = e.auth.Login(context.Background(), "Sam", "anything")
	assert.ErrorIs(t, err, common.ErrNoPasswordSet)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestLogin_StoreError(t *testing.T) {
	rm := repomanager.NewInMemoryRepositoryManager()
	e := newEnvWith(t, rm, &faultyManager{InMemoryRepositoryManager: rm, failCollectors: true})

	_, err := e.auth.Login(context.Background(), "Sam", "s3cret")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestCreate_RequiresAdmin(t *testing.T) {
	e := newEnv(t)
	collectorToken := func() string {
		e.createCollector(t, "Existing", "pass")
		return "Bearer " + e.login(t, "Existing", "pass")
	}()
	wrongSecret, err := auth.IssueAdminToken(auth.Admin{ID: "x"}, []byte("other"), time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":         "",
		"not bearer":      "Basic Zm9vOmJhcg==",
		"garbage":         "Bearer not-a-jwt",
		"wrong secret":    "Bearer " + wrongSecret,
		"collector token": collectorToken,
	} {
		t.Run(name, func(t *testing.T) {
			err := e.auth.Create(context.Background(), "Sam", "s3cret", header)
			assert.ErrorIs(t, err, common.ErrorUnauthorized)
		})
	}

	_, err = e.rm.Collectors().GetByName(context.Background(), "Sam")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)

	cases := map[string][2]string{
		"empty name":     {"", "s3cret"},
		"blank name":     {"   ", "s3cret"},
		"empty password": {"Sam", ""},
		"short password": {"Sam", "abc"},
		"single emoji":   {"Sam", "😀"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			err := e.auth.Create(context.Background(), in[0], in[1], adminHeader(t))
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestCreate_PasswordLengthInUTF16Units(t *testing.T) {
	e := newEnv(t)

	e.createCollector(t, "Sam", "😀😀")
	_, err := e.auth.Login(context.Background(), "Sam", "😀😀")
	assert.NoError(t, err)

	e.createCollector(t, "Kim", "كلمة")
	_, err = e.auth.Login(context.Background(), "Kim", "كلمة")
	assert.NoError(t, err)
}

func TestCreate_TrimsName(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "  Sam  ", "s3cret")

	res, err := e.auth.Login(context.Background(), "Sam", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "Sam", res.Collector.Name)
}

func TestCreate_DuplicateKeepsCredential(t *testing.T) {
	e := newEnv(t)
	e.createCollector(t, "Sam", "original")

	before, err := e.rm.Collectors().GetByName(context.Background(), "Sam")
	require.NoError(t, err)

	err = e.auth.Create(context.Background(), "Sam", "replacement", adminHeader(t))
	assert.ErrorIs(t, err, common.ErrConflict)

	after, err := e.rm.Collectors().GetByName(context.Background(), "Sam")
	require.NoError(t, err)
	assert.Equal(t, *before.PasswordHash, *after.PasswordHash)

	_, err = e.auth.Login(context.Background(), "Sam", "original")
	assert.NoError(t, err)
	_, err = e.auth.Login(context.Background(), "Sam", "replacement")
	assert.ErrorIs(t, err, common.ErrWrongPassword)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.metrics.CollectorsCreated.WithLabelValues(metrics.OutcomeConflict)))
}

func TestCreate_StoreError(t *testing.T) {
	rm := repomanager.NewInMemoryRepositoryManager()
	e := newEnvWith(t, rm, &faultyManager{InMemoryRepositoryManager: rm, failCollectors: true})

	err := e.auth.Create(context.Background(), "Sam", "s3cret", adminHeader(t))
	assert.ErrorIs(t, err, common.ErrorInternal)
}
