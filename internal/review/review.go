// Package review asks an independent provider for a short qualitative
// opinion on generated content. Reviews are advisory: every failure yields
// a nil opinion and a warning log, never an error.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/blueberrycongee/copydesk/internal/generation"
	"github.com/blueberrycongee/copydesk/internal/metrics"
	"github.com/blueberrycongee/copydesk/internal/prompt"
	"github.com/blueberrycongee/copydesk/internal/router"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// DefaultTimeout bounds a review when none is configured.
const DefaultTimeout = 20 * time.Second

// Router resolves the route for a task.
type Router interface {
	Route(ctx context.Context, task types.Task, workspaceID string) (*router.Route, error)
}

// Context describes what is being reviewed.
type Context struct {
	Kind        string // "copy" or "visual"
	FunnelStage types.FunnelStage
	Topic       string
	BrandTone   string
	Language    string
}

// ModelOpinion is the opinion as the model returns it. Score is a pointer so
// an omitted score is rejected instead of read as zero.
type ModelOpinion struct {
	Score          *int                       `json:"score" validate:"required,min=0,max=10" jsonschema:"minimum=0,maximum=10"`
	Strengths      []string                   `json:"strengths" validate:"max=3,dive,required" jsonschema:"maxItems=3"`
	Weaknesses     []string                   `json:"weaknesses" validate:"max=3,dive,required" jsonschema:"maxItems=3"`
	Recommendation types.ReviewRecommendation `json:"recommendation" validate:"required,oneof=publish revise rewrite" jsonschema:"enum=publish,enum=revise,enum=rewrite"`
	Summary        string                     `json:"summary" validate:"required,max=600"`
}

// Opinion converts a validated model answer.
func (m *ModelOpinion) Opinion(vendor string) *types.ReviewOpinion {
	return &types.ReviewOpinion{
		Score:          *m.Score,
		Strengths:      m.Strengths,
		Weaknesses:     m.Weaknesses,
		Recommendation: m.Recommendation,
		Summary:        m.Summary,
		Provider:       vendor,
	}
}

// Reviewer produces second opinions.
type Reviewer struct {
	router  Router
	gen     *generation.Generator
	logger  *slog.Logger
	timeout func() time.Duration
}

// New creates a reviewer. timeout is read per call so it can follow config
// reloads; nil means DefaultTimeout.
func New(r Router, gen *generation.Generator, timeout func() time.Duration, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout == nil {
		timeout = func() time.Duration { return DefaultTimeout }
	}
	return &Reviewer{router: r, gen: gen, logger: logger, timeout: timeout}
}

// Timeout returns the current review deadline.
func (r *Reviewer) Timeout() time.Duration {
	if d := r.timeout(); d > 0 {
		return d
	}
	return DefaultTimeout
}

// Review returns an opinion on content, or nil when no opinion could be
// obtained for any reason.
func (r *Reviewer) Review(ctx context.Context, workspaceID, content string, rc Context) *types.ReviewOpinion {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout())
	defer cancel()

	route, err := r.router.Route(ctx, types.TaskSecondOpinion, workspaceID)
	if err != nil {
		r.fail(ctx, "unavailable", err)
		return nil
	}
	route.Fallback = nil

	p := buildPrompt(content, rc)
	res, err := generation.Generate[ModelOpinion](ctx, r.gen, route, generation.Call{
		System: p.System,
		User:   p.User,
	})
	if err != nil {
		outcome := "failed"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		r.fail(ctx, outcome, err)
		return nil
	}

	metrics.RecordReview("ok")
	return res.Value.Opinion(res.Vendor)
}

func (r *Reviewer) fail(ctx context.Context, outcome string, err error) {
	metrics.RecordReview(outcome)
	r.logger.WarnContext(ctx, "second opinion unavailable",
		"outcome", outcome,
		"error_kind", llmerrors.KindOf(err),
		"error", err,
	)
}

// Pending is a review running in the background.
type Pending struct {
	done    chan struct{}
	opinion *types.ReviewOpinion
}

// Start runs Review in its own goroutine. The goroutine is bound to ctx and
// the review timeout, so it ends no later than either.
func (r *Reviewer) Start(ctx context.Context, workspaceID, content string, rc Context) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.opinion = r.Review(ctx, workspaceID, content, rc)
	}()
	return p
}

// Await waits for the review until ctx is done. An unfinished review is
// reported as nil.
func (p *Pending) Await(ctx context.Context) *types.ReviewOpinion {
	if p == nil {
		return nil
	}
	select {
	case <-p.done:
		return p.opinion
	case <-ctx.Done():
		metrics.RecordReview("abandoned")
		return nil
	}
}

func buildPrompt(content string, rc Context) prompt.Prompt {
	var sys prompt.Builder
	sys.Line("You are an independent senior B2B content strategist giving a second opinion.")
	sys.Line("Judge whether the %s is ready to publish on LinkedIn.", kindLabel(rc.Kind))
	sys.Line("Give a score from 0 to 10, at most 3 strengths and 3 weaknesses, a recommendation (publish, revise or rewrite) and a summary of at most 3 sentences.")
	sys.Line("Write in %s.", prompt.LanguageName(rc.Language))
	sys.Field("Brand tone", rc.BrandTone)

	var user prompt.Builder
	user.Field("Funnel stage", string(rc.FunnelStage))
	user.Field("Topic", rc.Topic)
	user.Blank()
	user.Line("<content>")
	user.Line("%s", content)
	user.Line("</content>")

	return prompt.Prompt{System: sys.String(), User: user.String()}
}

func kindLabel(kind string) string {
	if kind == "visual" {
		return "visual brief"
	}
	return "post"
}
