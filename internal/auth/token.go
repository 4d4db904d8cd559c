// Package auth stores the bearer token used against the remote API.
// The token file is the client-side stand-in for browser local storage;
// there is no authentication protocol here, only storage.
package auth

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore persists a single bearer token on disk.
type TokenStore struct {
	mu   sync.Mutex
	path string
}

// NewTokenStore creates a token store backed by the given file path.
func NewTokenStore(path string) *TokenStore {
	return &TokenStore{path: path}
}

// Token returns the stored bearer token, or "" when no usable token is
// present. A stored JWT whose exp claim has passed is treated as absent;
// signature validation is the server's job, not ours.
func (s *TokenStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return ""
	}
	if expired(token) {
		return ""
	}
	return token
}

// Set stores the bearer token, creating the parent directory if needed.
func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Clear removes the stored token. Missing files are not an error.
func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// expired reports whether token is a JWT with an exp claim in the past.
// Opaque tokens (anything that does not parse as a JWT) are never
// considered expired.
func expired(token string) bool {
	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(time.Now())
}
