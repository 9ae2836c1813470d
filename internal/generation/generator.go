// Package generation runs a routed LLM call and returns a validated value.
// Attempts run in route order (primary, then fallback) and stop at the first
// success; Reduce picks the result.
package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blueberrycongee/copydesk/internal/credential"
	"github.com/blueberrycongee/copydesk/internal/metrics"
	"github.com/blueberrycongee/copydesk/internal/provider"
	"github.com/blueberrycongee/copydesk/internal/router"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

const tracerName = "github.com/blueberrycongee/copydesk/internal/generation"

// DefaultAttemptTimeout bounds a single provider attempt.
const DefaultAttemptTimeout = 60 * time.Second

// Options configures a Generator.
type Options struct {
	AttemptTimeout time.Duration
	Logger         *slog.Logger
}

// Generator executes attempts. It holds no per-request state.
type Generator struct {
	attemptTimeout time.Duration
	logger         *slog.Logger
	tracer         trace.Tracer
}

// New creates a Generator.
func New(opts Options) *Generator {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Generator{
		attemptTimeout: opts.AttemptTimeout,
		logger:         opts.Logger,
		tracer:         otel.Tracer(tracerName),
	}
}

// Call is the prompt for one task.
type Call struct {
	System string
	User   string

	// FreeText skips the output schema; the same decode still applies.
	FreeText bool

	Temperature *float64
	MaxTokens   int
}

// Attempt records one provider call.
type Attempt struct {
	Slot     credential.Provider
	Vendor   string
	Model    string
	Duration time.Duration
	Err      error
}

// Outcome is an attempt together with its decoded value.
type Outcome[T any] struct {
	Attempt
	Value *T
}

// Result is the successful output of Generate.
type Result[T any] struct {
	Value        *T
	Slot         credential.Provider
	Vendor       string
	Model        string
	UsedFallback bool
	Attempts     []Attempt
}

// Generate runs the route's targets in order until one yields a valid T.
func Generate[T any](ctx context.Context, g *Generator, route *router.Route, call Call) (*Result[T], error) {
	return GenerateChecked[T](ctx, g, route, call, nil)
}

// GenerateChecked is Generate with a request-specific acceptance check. A
// check failure is SchemaInvalid and therefore moves on to the fallback.
func GenerateChecked[T any](ctx context.Context, g *Generator, route *router.Route, call Call, check func(*T) error) (*Result[T], error) {
	req := &provider.Request{
		System:      call.System,
		User:        call.User,
		SchemaName:  string(route.Task),
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	}
	if !call.FreeText {
		req.Schema = SchemaFor[T]()
	}

	targets := route.Targets()
	outcomes := make([]Outcome[T], 0, len(targets))
	for _, target := range targets {
		o := attempt(ctx, g, route.Task, target, req, check)
		outcomes = append(outcomes, o)
		if o.Err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if e, ok := llmerrors.As(o.Err); !ok || !e.FallbackEligible() {
			break
		}
	}

	res, err := Reduce(outcomes)
	if err != nil {
		return nil, err
	}
	if res.UsedFallback {
		metrics.RecordFallback(string(route.Task))
		for _, a := range res.Attempts[:len(res.Attempts)-1] {
			g.logger.Warn("primary attempt failed, served by fallback",
				"task", route.Task,
				"slot", a.Slot,
				"vendor", a.Vendor,
				"error_kind", llmerrors.KindOf(a.Err),
			)
		}
	}
	return res, nil
}

// Reduce picks the first successful outcome. When every attempt failed it
// returns the primary attempt's error; later errors are never surfaced.
func Reduce[T any](outcomes []Outcome[T]) (*Result[T], error) {
	if len(outcomes) == 0 {
		return nil, llmerrors.NewInternal("no generation attempts", nil)
	}

	attempts := make([]Attempt, 0, len(outcomes))
	for i, o := range outcomes {
		attempts = append(attempts, o.Attempt)
		if o.Err == nil && o.Value != nil {
			return &Result[T]{
				Value:        o.Value,
				Slot:         o.Slot,
				Vendor:       o.Vendor,
				Model:        o.Model,
				UsedFallback: i > 0,
				Attempts:     attempts,
			}, nil
		}
	}

	if outcomes[0].Err == nil {
		return nil, llmerrors.NewInternal("attempt produced no value", nil)
	}
	return nil, outcomes[0].Err
}

func attempt[T any](ctx context.Context, g *Generator, task types.Task, target router.Target, req *provider.Request, check func(*T) error) Outcome[T] {
	h := target.Handle
	o := Outcome[T]{Attempt: Attempt{Slot: target.Slot, Vendor: h.Vendor(), Model: h.Model()}}

	ctx, span := g.tracer.Start(ctx, "generation.attempt", trace.WithAttributes(
		attribute.String("copydesk.task", string(task)),
		attribute.String("copydesk.slot", string(target.Slot)),
		attribute.String("copydesk.vendor", h.Vendor()),
		attribute.String("copydesk.model", h.Model()),
		attribute.String("copydesk.key_scope", scopeLabel(target.Scope)),
	))
	defer span.End()

	attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
	defer cancel()

	start := time.Now()
	raw, err := h.Complete(attemptCtx, req)
	if err == nil {
		o.Value, err = Decode[T](raw, h.Vendor(), h.Model())
		if err == nil && check != nil {
			if cerr := check(o.Value); cerr != nil {
				o.Value = nil
				err = llmerrors.NewSchemaInvalid(h.Vendor(), h.Model(), Truncate(raw, SnippetLimit), cerr)
			}
		}
	} else {
		err = asProviderError(attemptCtx, err, h)
	}
	o.Duration = time.Since(start)
	o.Err = err

	outcome := "success"
	if err != nil {
		kind := llmerrors.KindOf(err)
		outcome = string(kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)

		attrs := []any{
			"task", task,
			"slot", target.Slot,
			"vendor", h.Vendor(),
			"model", h.Model(),
			"error_kind", kind,
			"duration_ms", o.Duration.Milliseconds(),
			"error", err,
		}
		if e, ok := llmerrors.As(err); ok && e.Snippet != "" {
			attrs = append(attrs, "output_snippet", e.Snippet)
		}
		g.logger.WarnContext(ctx, "generation attempt failed", attrs...)
	}
	metrics.RecordAttempt(string(task), string(target.Slot), h.Vendor(), h.Model(), outcome, o.Duration)
	return o
}

// asProviderError maps untyped handle errors and timeouts to ProviderError.
func asProviderError(ctx context.Context, err error, h provider.Handle) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if e, ok := llmerrors.As(err); !ok || e.Kind != llmerrors.KindProviderError {
			return llmerrors.NewProviderError(h.Vendor(), h.Model(), context.DeadlineExceeded)
		}
	}
	if _, ok := llmerrors.As(err); ok {
		return err
	}
	return llmerrors.NewProviderError(h.Vendor(), h.Model(), err)
}

func scopeLabel(scope string) string {
	if scope == credential.GlobalScope {
		return credential.GlobalScope
	}
	return "workspace"
}
