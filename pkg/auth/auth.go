// Package auth provides the credential capability the API client draws bearer
// tokens from. Sign-in flows live elsewhere; this package only keeps the result.
package auth

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken is returned when no credential is stored.
var ErrNoToken = errors.New("no auth token")

// ErrReadOnly is returned by stores that cannot be written.
var ErrReadOnly = errors.New("credential store is read-only")

// CredentialStore gets, sets and clears the current bearer token.
type CredentialStore interface {
	// Token returns the stored token or ErrNoToken.
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	// ClearToken removes the token. Clearing an empty store is not an error.
	ClearToken(ctx context.Context) error
}

// MemoryCredentialStore is a thread-safe, in-process CredentialStore.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryCredentialStore creates a store, optionally seeded with token.
func NewMemoryCredentialStore(token string) *MemoryCredentialStore {
	return &MemoryCredentialStore{token: token}
}

func (s *MemoryCredentialStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *MemoryCredentialStore) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryCredentialStore) ClearToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
