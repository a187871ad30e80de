package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformAdminVerifier(t *testing.T) {
	secret := "admin-secret"
	v := NewPlatformAdminVerifier(secret)

	tok, err := IssueAdminToken(Admin{ID: "adm-1", Email: "ops@example.com"}, []byte(secret), time.Hour)
	require.NoError(t, err)

	admin, err := v.VerifyAdmin(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, "adm-1", admin.ID)
	assert.Equal(t, "ops@example.com", admin.Email)

	expired, err := IssueAdminToken(Admin{ID: "adm-1"}, []byte(secret), -time.Minute)
	require.NoError(t, err)
	other, err := IssueAdminToken(Admin{ID: "adm-1"}, []byte("other"), time.Hour)
	require.NoError(t, err)
	session, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "n", ExpiresAt: time.Now().Add(time.Hour)}, []byte(secret))
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":       "",
		"no scheme":     tok,
		"basic":         "Basic " + tok,
		"empty bearer":  "Bearer ",
		"expired":       "Bearer " + expired,
		"wrong secret":  "Bearer " + other,
		"session token": "Bearer " + session,
	} {
		_, err := v.VerifyAdmin(context.Background(), header)
		assert.Truef(t, errors.Is(err, common.ErrorUnauthorized), "%s: got %v", name, err)
	}
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	_, ok = BearerToken("Bearer")
	assert.False(t, ok)
}
