package auth

import (
	"errors"
	"sync"
)

var ErrUnknownCredential = errors.New("unknown credential")

// TokenTable resolves credentials that an external issuer registered ahead of time.
type TokenTable struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewTokenTable() *TokenTable {
	return &TokenTable{
		entries: make(map[string]string),
	}
}

// Register binds credential to principal, replacing any earlier binding.
func (t *TokenTable) Register(credential, principal string) error {
	if credential == "" || principal == "" {
		return errors.New("credential and principal are required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[credential] = principal
	return nil
}

func (t *TokenTable) Resolve(credential string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	principal, ok := t.entries[credential]
	if !ok {
		return "", ErrUnknownCredential
	}
	return principal, nil
}
