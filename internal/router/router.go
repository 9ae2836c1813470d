package router

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blueberrycongee/copydesk/internal/credential"
	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// Router resolves routes for tasks.
type Router struct {
	cfg      Config
	keys     CredentialResolver
	registry *provider.Registry
	logger   *slog.Logger
}

// New validates cfg and returns a router.
func New(cfg Config, keys CredentialResolver, registry *provider.Registry, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for slot, sc := range cfg.Slots {
		if !registry.Has(sc.Vendor) {
			return nil, fmt.Errorf("slot %s: unknown vendor %q", slot, sc.Vendor)
		}
	}
	return &Router{cfg: cfg, keys: keys, registry: registry, logger: logger}, nil
}

// Route resolves the primary and optional fallback target for task.
// A primary failure is returned unchanged; a fallback failure only drops
// the fallback.
func (r *Router) Route(ctx context.Context, task types.Task, workspaceID string) (*Route, error) {
	tr, ok := r.cfg.Tasks[task]
	if !ok {
		return nil, llmerrors.NewInternal(fmt.Sprintf("no route for task %s", task), nil)
	}

	primary, err := r.target(ctx, tr.Primary, workspaceID)
	if err != nil {
		return nil, err
	}
	route := &Route{Task: task, Primary: *primary}

	if tr.Fallback == "" {
		return route, nil
	}
	fallback, err := r.target(ctx, tr.Fallback, workspaceID)
	if err != nil {
		r.logger.Debug("fallback unavailable",
			"task", task,
			"slot", tr.Fallback,
			"error", err,
		)
		return route, nil
	}
	route.Fallback = fallback
	return route, nil
}

func (r *Router) target(ctx context.Context, slot credential.Provider, workspaceID string) (*Target, error) {
	sc, ok := r.cfg.Slots[slot]
	if !ok {
		return nil, llmerrors.NewNoKeyConfigured(string(slot), credential.Remediation(slot))
	}

	cred, err := r.keys.Resolve(ctx, slot, workspaceID)
	if err != nil {
		return nil, err
	}

	h, err := r.registry.New(provider.Settings{
		Vendor:    sc.Vendor,
		Model:     sc.Model,
		APIKey:    cred.Secret,
		BaseURL:   sc.BaseURL,
		MaxTokens: sc.MaxTokens,
		Timeout:   sc.Timeout,
	})
	if err != nil {
		return nil, llmerrors.NewInternal(fmt.Sprintf("build handle for %s", slot), err)
	}

	return &Target{
		Slot:    slot,
		Handle:  h,
		KeyHint: cred.Hint,
		Scope:   cred.Scope,
	}, nil
}
