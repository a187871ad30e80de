// Package passwords derives and verifies salted collector credentials.
//
// A credential is stored as base64(salt) + ":" + base64(key), where key is
// PBKDF2-HMAC-SHA256 of the password over Iterations rounds.
package passwords

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/nownpp/data-hub-entry/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	Iterations = 100_000
	SaltSize   = 16
	KeySize    = 32

	separator = ":"
)

// ErrMalformedCredential is returned by Parse for stored values that do not
// follow the salt:key layout.
var ErrMalformedCredential = errors.New("malformed credential")

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, Iterations, KeySize, sha256.New)
}

// Hash returns a new credential for password using a fresh random salt.
func Hash(password string) (string, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	key := deriveKey(password, salt)
	defer common.WipeByteArray(key)

	return base64.StdEncoding.EncodeToString(salt) + separator + base64.StdEncoding.EncodeToString(key), nil
}

// Parse splits a stored credential into its salt and derived key.
func Parse(credential string) (salt, key []byte, err error) {
	saltB64, keyB64, ok := strings.Cut(credential, separator)
	if !ok || saltB64 == "" || keyB64 == "" {
		return nil, nil, ErrMalformedCredential
	}
	salt, err = base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, nil, ErrMalformedCredential
	}
	key, err = base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, nil, ErrMalformedCredential
	}
	return salt, key, nil
}

// Verify reports whether password matches credential. Malformed credentials
// never match.
func Verify(password, credential string) bool {
	salt, stored, err := Parse(credential)
	if err != nil {
		return false
	}
	candidate := deriveKey(password, salt)
	defer common.WipeByteArray(candidate)

	return subtle.ConstantTimeCompare(candidate, stored) == 1
}
