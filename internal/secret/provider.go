// Package secret resolves secret references such as "env://OPENAI_API_KEY"
// or "vault://secret/data/copydesk#openai" into their values.
package secret

import (
	"context"
	"errors"
)

// ErrNotFound reports that a reference names a secret that does not exist.
// Providers wrap it so callers can tell a missing key from a broken backend.
var ErrNotFound = errors.New("secret not found")

// Provider reads secrets for one URI scheme.
type Provider interface {
	// Get returns the secret at path (the part after "scheme://").
	Get(ctx context.Context, path string) (string, error)

	// Close releases any resources held by the provider.
	Close() error
}
