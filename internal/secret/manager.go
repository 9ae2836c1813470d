package secret

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Manager routes references to providers by scheme. Values without a scheme
// are returned unchanged so plain keys keep working in development.
type Manager struct {
	mu        sync.RWMutex
	providers map[string]Provider
	cache     *gocache.Cache
}

// NewManager creates a manager. Remote lookups are cached for ttl so a
// config reload does not hit Vault for every unchanged reference; ttl <= 0
// disables caching.
func NewManager(ttl time.Duration) *Manager {
	m := &Manager{providers: make(map[string]Provider)}
	if ttl > 0 {
		m.cache = gocache.New(ttl, 2*ttl)
	}
	return m
}

// Register installs a provider for scheme (e.g. "vault", "env").
func (m *Manager) Register(scheme string, p Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[scheme] = p
}

// IsReference reports whether value uses the scheme://path form.
func IsReference(value string) bool {
	return strings.Contains(value, "://")
}

// Get resolves a single reference.
func (m *Manager) Get(ctx context.Context, ref string) (string, error) {
	scheme, path, ok := strings.Cut(ref, "://")
	if !ok {
		return ref, nil
	}

	m.mu.RLock()
	p, found := m.providers[scheme]
	m.mu.RUnlock()
	if !found {
		return "", fmt.Errorf("no secret provider registered for scheme %q", scheme)
	}

	if m.cache != nil && scheme != "env" {
		if v, hit := m.cache.Get(ref); hit {
			if s, ok := v.(string); ok {
				return s, nil
			}
		}
	}

	val, err := p.Get(ctx, path)
	if err != nil {
		return "", err
	}
	if m.cache != nil && scheme != "env" {
		m.cache.SetDefault(ref, val)
	}
	return val, nil
}

// ResolveAll resolves every value in refs. Empty values stay empty.
// References whose secret does not exist are left out of the result and
// listed, sorted, in missing; any other failure is an error. Errors name the
// key, never the resolved value.
func (m *Manager) ResolveAll(ctx context.Context, refs map[string]string) (values map[string]string, missing []string, err error) {
	values = make(map[string]string, len(refs))
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		ref := refs[k]
		if ref == "" {
			values[k] = ""
			continue
		}
		val, err := m.Get(ctx, ref)
		switch {
		case errors.Is(err, ErrNotFound):
			missing = append(missing, k)
		case err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
		default:
			values[k] = val
		}
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return values, missing, nil
}

// Close closes all registered providers.
func (m *Manager) Close() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var errs []error
	for scheme, p := range m.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", scheme, err))
		}
	}
	return errors.Join(errs...)
}
