package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nownpp/data-hub-entry/internal/common"
)

const AdminAudience = "admin"

// Admin is an authenticated platform administrator.
type Admin struct {
	ID    string
	Email string
}

type AdminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// IssueAdminToken mints a platform admin token. The platform normally does
// this; the service only needs it for development bootstrap and tests.
func IssueAdminToken(a Admin, secret []byte, validity time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AdminClaims{
		Email: a.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   a.ID,
			Audience:  jwt.ClaimStrings{AdminAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})

	return token.SignedString(secret)
}

// ParseAdminToken verifies an admin token and returns the admin identity.
func ParseAdminToken(tokenString string, secret []byte) (*Admin, error) {
	if len(secret) == 0 || tokenString == "" {
		return nil, common.ErrInvalidToken
	}

	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, hmacKey(secret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AdminAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Admin{ID: claims.Subject, Email: claims.Email}, nil
}

// PlatformAdminVerifier authenticates administrators from the
// "Authorization: Bearer <token>" header value.
type PlatformAdminVerifier struct {
	secret []byte
}

func NewPlatformAdminVerifier(secret string) *PlatformAdminVerifier {
	return &PlatformAdminVerifier{secret: []byte(secret)}
}

// VerifyAdmin returns common.ErrorUnauthorized for a missing, malformed or
// invalid header.
func (v *PlatformAdminVerifier) VerifyAdmin(_ context.Context, authorization string) (*Admin, error) {
	token, ok := BearerToken(authorization)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	admin, err := ParseAdminToken(token, v.secret)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	return admin, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) <= len(common.BearerPrefix) || !strings.EqualFold(header[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(common.BearerPrefix):])
	return token, token != ""
}
