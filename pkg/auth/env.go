package auth

import (
	"context"
	"os"
	"sync/atomic"
)

// DefaultTokenVar is the variable EnvCredentialStore reads by default.
const DefaultTokenVar = "INVESTOR_AUTH_TOKEN"

// EnvCredentialStore reads the token from an environment variable on every
// call. It cannot be written; ClearToken hides the variable for the rest of
// the process so a logout sticks.
type EnvCredentialStore struct {
	name    string
	cleared atomic.Bool
}

// NewEnvCredentialStore reads name, or DefaultTokenVar when name is empty.
func NewEnvCredentialStore(name string) *EnvCredentialStore {
	if name == "" {
		name = DefaultTokenVar
	}
	return &EnvCredentialStore{name: name}
}

func (s *EnvCredentialStore) Token(_ context.Context) (string, error) {
	if s.cleared.Load() {
		return "", ErrNoToken
	}
	token := os.Getenv(s.name)
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *EnvCredentialStore) SetToken(_ context.Context, _ string) error {
	return ErrReadOnly
}

func (s *EnvCredentialStore) ClearToken(_ context.Context) error {
	s.cleared.Store(true)
	return nil
}
