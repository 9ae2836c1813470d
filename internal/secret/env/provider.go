// Package env reads secrets from environment variables.
package env

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blueberrycongee/copydesk/internal/secret"
)

// Provider implements secret.Provider over the process environment.
type Provider struct {
	lookup func(string) (string, bool)
}

// New creates an environment provider.
func New() *Provider {
	return &Provider{lookup: os.LookupEnv}
}

// Get returns the variable named path. An unset or blank variable wraps
// secret.ErrNotFound.
func (p *Provider) Get(_ context.Context, path string) (string, error) {
	val, ok := p.lookup(path)
	if !ok || strings.TrimSpace(val) == "" {
		return "", fmt.Errorf("environment variable %q: %w", path, secret.ErrNotFound)
	}
	return val, nil
}

// Close is a no-op.
func (p *Provider) Close() error {
	return nil
}
