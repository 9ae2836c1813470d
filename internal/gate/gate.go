// Package gate admits requests to the content endpoints. Every entry point
// runs the same three checks in order: authentication, per-user rate limiting
// and input validation. A failed check short-circuits before any provider is
// contacted.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/blueberrycongee/copydesk/internal/httputil"
	"github.com/blueberrycongee/copydesk/internal/metrics"
	"github.com/blueberrycongee/copydesk/internal/validation"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Options configures a Gate.
type Options struct {
	Authenticator Authenticator
	Limiter       Limiter
	Policies      map[string]Policy
	// FailOpen admits requests when the limiter backend errors.
	FailOpen     bool
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// Gate runs the admission checks.
type Gate struct {
	auth     Authenticator
	limiter  Limiter
	policies atomic.Pointer[map[string]Policy]
	failOpen atomic.Bool
	maxBody  int64
	logger   *slog.Logger
	sampled  *rate.Sometimes
}

// New creates a Gate.
func New(opts Options) *Gate {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewMemoryLimiter()
	}
	if opts.Policies == nil {
		opts.Policies = DefaultPolicies()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = httputil.DefaultMaxRequestBodyBytes
	}
	g := &Gate{
		auth:    opts.Authenticator,
		limiter: opts.Limiter,
		maxBody: opts.MaxBodyBytes,
		logger:  opts.Logger,
		sampled: &rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	g.SetPolicies(opts.Policies)
	g.failOpen.Store(opts.FailOpen)
	return g
}

// SetPolicies replaces the rate limit policies.
func (g *Gate) SetPolicies(p map[string]Policy) {
	cp := make(map[string]Policy, len(p))
	for k, v := range p {
		cp[k] = v
	}
	g.policies.Store(&cp)
}

// SetFailOpen changes the limiter backend failure mode.
func (g *Gate) SetFailOpen(v bool) {
	g.failOpen.Store(v)
}

// Policy returns the named policy.
func (g *Gate) Policy(name string) (Policy, bool) {
	p, ok := (*g.policies.Load())[name]
	return p, ok
}

// Admit authenticates r, charges it against policy and decodes its JSON
// body into dst, which is then validated. dst may be nil for bodiless
// requests.
func (g *Gate) Admit(r *http.Request, policy string, dst any) (*Principal, error) {
	ctx := r.Context()

	p, err := g.authenticate(r)
	if err != nil {
		metrics.RecordRejection(policy, "unauthenticated")
		g.logger.DebugContext(ctx, "request not authenticated", "error", err)
		return nil, llmerrors.NewUnauthenticated("authentication required")
	}

	if err := g.charge(r, policy, p); err != nil {
		return nil, err
	}

	if dst != nil {
		if err := g.decode(r, dst); err != nil {
			metrics.RecordRejection(policy, "invalid_input")
			return nil, err
		}
	}
	return p, nil
}

func (g *Gate) authenticate(r *http.Request) (*Principal, error) {
	if g.auth == nil {
		return nil, errors.New("no authenticator configured")
	}
	p, err := g.auth.Authenticate(r.Context(), r)
	if err != nil {
		return nil, err
	}
	if p == nil || p.UserID == "" {
		return nil, errors.New("principal without user id")
	}
	return p, nil
}

func (g *Gate) charge(r *http.Request, name string, p *Principal) error {
	ctx := r.Context()
	policy, ok := g.Policy(name)
	if !ok {
		return llmerrors.NewInternal("unknown rate limit policy", fmt.Errorf("policy %q", name))
	}
	if policy.Limit <= 0 {
		return nil
	}

	d, err := g.limiter.Allow(ctx, name+":"+p.UserID, policy.Limit, policy.Window)
	if err != nil {
		failOpen := g.failOpen.Load()
		metrics.RecordLimiterError(name, failOpen)
		g.sampled.Do(func() {
			g.logger.WarnContext(ctx, "rate limiter backend failed",
				"policy", name,
				"fail_open", failOpen,
				"error", err,
			)
		})
		if failOpen {
			return nil
		}
		metrics.RecordRejection(name, "limiter_unavailable")
		return llmerrors.NewRateLimitedAfter("too many requests, try again shortly", policy.Window)
	}
	if !d.Allowed {
		metrics.RecordRejection(name, "rate_limited")
		g.logger.DebugContext(ctx, "rate limited",
			"policy", name,
			"user_id", p.UserID,
			"count", d.Count,
		)
		return llmerrors.NewRateLimitedAfter("too many requests, try again shortly", d.RetryAfter)
	}
	return nil
}

func (g *Gate) decode(r *http.Request, dst any) error {
	if err := httputil.DecodeJSONBody(r, g.maxBody, dst); err != nil {
		switch {
		case errors.Is(err, httputil.ErrBodyTooLarge):
			return llmerrors.NewInvalidInput("request body is too large")
		case errors.Is(err, httputil.ErrEmptyBody):
			return llmerrors.NewInvalidInput("request body is required")
		default:
			return llmerrors.NewInvalidInput("request body is not valid JSON")
		}
	}
	if err := validation.Struct(dst); err != nil {
		var fe *validation.FieldError
		if errors.As(err, &fe) {
			e := llmerrors.NewInvalidInput(fe.Error())
			e.Cause = fe
			return e
		}
		return llmerrors.NewInternal("validate request", err)
	}
	return nil
}
