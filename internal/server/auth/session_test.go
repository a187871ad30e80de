package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nownpp/data-hub-entry/internal/common"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("session-secret")
	in := Session{CollectorID: "c-1", CollectorName: "Sam", ExpiresAt: time.Now().Add(24 * time.Hour)}

	tok, err := IssueSessionToken(in, secret)
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	got, err := ParseSessionToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if got.CollectorID != in.CollectorID || got.CollectorName != in.CollectorName {
		t.Fatalf("claims mismatch: got %+v want %+v", got, in)
	}
	if !got.ExpiresAt.Equal(in.ExpiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: got %v want %v", got.ExpiresAt, in.ExpiresAt.Truncate(time.Second))
	}
}

func TestSessionToken_UnicodeName(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueSessionToken(Session{CollectorID: "c-2", CollectorName: "أحمد", ExpiresAt: time.Now().Add(time.Hour)}, secret)
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}
	got, err := ParseSessionToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseSessionToken error: %v", err)
	}
	if got.CollectorName != "أحمد" {
		t.Fatalf("name mismatch: %q", got.CollectorName)
	}
}

func TestParseSessionToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "n", ExpiresAt: time.Now().Add(-time.Minute)}, secret)
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	_, err = ParseSessionToken(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseSessionToken_ExpiredWithWrongSecretIsInvalid(t *testing.T) {
	t.Parallel()

	tok, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "n", ExpiresAt: time.Now().Add(-time.Minute)}, []byte("right"))
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	_, err = ParseSessionToken(tok, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "n", ExpiresAt: time.Now().Add(time.Hour)}, []byte("right"))
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	_, err = ParseSessionToken(tok, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_Tampered(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "alice", ExpiresAt: time.Now().Add(time.Hour)}, secret)
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}

	// swap the payload for one naming another collector, keep the signature
	forged, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "mallory", ExpiresAt: time.Now().Add(time.Hour)}, []byte("other"))
	if err != nil {
		t.Fatalf("IssueSessionToken error: %v", err)
	}
	parts := strings.Split(tok, ".")
	forgedParts := strings.Split(forged, ".")
	tampered := parts[0] + "." + forgedParts[1] + "." + parts[2]

	if _, err := ParseSessionToken(tampered, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_Malformed(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "not.a.jwt", "abc", "a.b", "....", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := ParseSessionToken(s, []byte("k")); !errors.Is(err, common.ErrInvalidToken) {
			t.Fatalf("%q: expected ErrInvalidToken, got %v", s, err)
		}
	}
}

func TestParseSessionToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, SessionClaims{
		CollectorID:   "c",
		CollectorName: "n",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{SessionAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(secret)
	if err != nil {
		t.Fatalf("SignedString error: %v", err)
	}

	if _, err := ParseSessionToken(s, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseSessionToken_AdminTokenIsNotASession(t *testing.T) {
	t.Parallel()

	secret := []byte("shared-by-mistake")
	tok, err := IssueAdminToken(Admin{ID: "a-1", Email: "a@example.com"}, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueAdminToken error: %v", err)
	}

	if _, err := ParseSessionToken(tok, secret); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssueSessionToken_EmptySecret(t *testing.T) {
	t.Parallel()

	if _, err := IssueSessionToken(Session{CollectorID: "c", CollectorName: "n", ExpiresAt: time.Now()}, nil); !errors.Is(err, ErrEmptySecret) {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}
