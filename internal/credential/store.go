package credential

import (
	"context"
	"sync"
)

// Store looks up workspace-scoped credentials.
// A missing credential is reported as (nil, nil).
type Store interface {
	GetWorkspaceCredential(ctx context.Context, workspaceID string, provider Provider) (*Credential, error)
}

type storeKey struct {
	workspace string
	provider  Provider
}

// MemoryStore is an in-process Store. It backs tests and single-node
// deployments where keys are seeded from configuration.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[storeKey]Credential
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[storeKey]Credential)}
}

// Put saves (or replaces) the credential for (workspace, provider).
// One active credential per pair is kept by construction.
func (s *MemoryStore) Put(workspaceID string, provider Provider, secret string, valid bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[storeKey{workspaceID, provider}] = Credential{
		Provider: provider,
		Scope:    workspaceID,
		Secret:   secret,
		Hint:     Hint(secret),
		IsValid:  valid,
	}
}

// Delete removes the credential for (workspace, provider).
func (s *MemoryStore) Delete(workspaceID string, provider Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, storeKey{workspaceID, provider})
}

// GetWorkspaceCredential implements Store.
func (s *MemoryStore) GetWorkspaceCredential(_ context.Context, workspaceID string, provider Provider) (*Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.creds[storeKey{workspaceID, provider}]
	if !ok {
		return nil, nil
	}
	out := c
	return &out, nil
}
