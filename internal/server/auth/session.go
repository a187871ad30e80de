// Package auth issues and verifies the HS256 bearer tokens used by the
// service: collector session tokens and platform admin tokens. Each kind is
// signed with its own secret and carries its own audience.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nownpp/data-hub-entry/internal/common"
)

const (
	Issuer          = "data-hub-entry"
	SessionAudience = "collector"
)

// ErrEmptySecret is returned when a token would be signed with no key.
var ErrEmptySecret = errors.New("empty signing secret")

// Session is the identity carried by a collector session token.
type Session struct {
	CollectorID   string
	CollectorName string
	ExpiresAt     time.Time
}

// SessionClaims is the JWT payload of a collector session token.
type SessionClaims struct {
	CollectorID   string `json:"collector_id"`
	CollectorName string `json:"collector_name"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs s with secret. The expiry is taken from s as is.
func IssueSessionToken(s Session, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		CollectorID:   s.CollectorID,
		CollectorName: s.CollectorName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   s.CollectorID,
			Audience:  jwt.ClaimStrings{SessionAudience},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	})

	return token.SignedString(secret)
}

// ParseSessionToken verifies tokenString and returns its session.
//
// A token whose signature checks out but whose expiry has passed yields
// common.ErrTokenExpired. Every other failure (malformed input, wrong
// signature or algorithm, missing claims) yields common.ErrInvalidToken.
func ParseSessionToken(tokenString string, secret []byte) (*Session, error) {
	if len(secret) == 0 || tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(SessionAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if claims.CollectorID == "" || claims.CollectorName == "" {
		return nil, common.ErrInvalidToken
	}

	return &Session{
		CollectorID:   claims.CollectorID,
		CollectorName: claims.CollectorName,
		ExpiresAt:     claims.ExpiresAt.Time,
	}, nil
}

func hmacKey(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		return secret, nil
	}
}
