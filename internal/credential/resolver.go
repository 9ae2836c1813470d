package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Defaults holds the operator's process-wide keys, one per provider slot.
// It is built once at startup and never mutated.
type Defaults map[Provider]string

// Remediation is the hint attached to NoKeyConfigured errors.
func Remediation(p Provider) string {
	return fmt.Sprintf("add a key under Settings → API keys, or set providers.%s.api_key", p)
}

// ResolverOptions tunes the workspace lookup cache.
type ResolverOptions struct {
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Resolver picks the credential a request uses for a provider slot.
type Resolver struct {
	store    Store
	defaults map[Provider]*Credential
	cache    *gocache.Cache
	logger   *slog.Logger
}

// cachedLookup stores a workspace lookup result, including misses.
type cachedLookup struct {
	cred *Credential
}

// NewResolver creates a resolver. store may be nil when workspaces cannot
// bring their own keys.
func NewResolver(store Store, defaults Defaults, opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	global := make(map[Provider]*Credential, len(defaults))
	for p, secret := range defaults {
		if secret == "" {
			continue
		}
		global[p] = &Credential{
			Provider: p,
			Scope:    GlobalScope,
			Secret:   secret,
			Hint:     Hint(secret),
			IsValid:  true,
		}
	}

	return &Resolver{
		store:    store,
		defaults: global,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logger,
	}
}

// Resolve returns the workspace credential when one exists and is valid,
// otherwise the operator default. It fails with NoKeyConfigured when
// neither exists.
func (r *Resolver) Resolve(ctx context.Context, provider Provider, workspaceID string) (*Credential, error) {
	if workspaceID != "" && r.store != nil {
		cred, err := r.lookup(ctx, provider, workspaceID)
		if err != nil {
			return nil, llmerrors.NewInternal("credential lookup failed", err)
		}
		if cred != nil && cred.IsValid {
			r.logger.Debug("credential resolved",
				"provider", provider,
				"scope", "workspace",
				"hint", cred.Hint,
			)
			return cred, nil
		}
	}

	if cred, ok := r.defaults[provider]; ok {
		r.logger.Debug("credential resolved",
			"provider", provider,
			"scope", GlobalScope,
			"hint", cred.Hint,
		)
		return cred, nil
	}

	return nil, llmerrors.NewNoKeyConfigured(string(provider), Remediation(provider))
}

// Invalidate drops the cached lookup for (workspace, provider).
func (r *Resolver) Invalidate(workspaceID string, provider Provider) {
	r.cache.Delete(cacheKey(workspaceID, provider))
}

// HasDefault reports whether an operator default exists for provider.
func (r *Resolver) HasDefault(provider Provider) bool {
	_, ok := r.defaults[provider]
	return ok
}

func (r *Resolver) lookup(ctx context.Context, provider Provider, workspaceID string) (*Credential, error) {
	key := cacheKey(workspaceID, provider)
	if v, ok := r.cache.Get(key); ok {
		if hit, ok := v.(cachedLookup); ok {
			return hit.cred, nil
		}
	}

	cred, err := r.store.GetWorkspaceCredential(ctx, workspaceID, provider)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, cachedLookup{cred: cred})
	return cred, nil
}

func cacheKey(workspaceID string, provider Provider) string {
	return workspaceID + "\x00" + string(provider)
}
