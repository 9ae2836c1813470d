// Package copywriter implements the content tasks: three post variants for a
// topic, and a visual brief for a finished post.
package copywriter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blueberrycongee/copydesk/internal/generation"
	"github.com/blueberrycongee/copydesk/internal/router"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// patternLimit caps how many retrieved patterns go into a prompt.
const patternLimit = 5

// Router resolves the route for a task.
type Router interface {
	Route(ctx context.Context, task types.Task, workspaceID string) (*router.Route, error)
}

// VisualRequest is the input of GenerateVisual.
type VisualRequest struct {
	PostContent            string
	FunnelStage            types.FunnelStage
	Format                 string
	Topic                  string
	Keyword                string
	AdditionalInstructions string
	WeeklyBrief            *types.WeeklyBrief
}

// Options configures a Writer.
type Options struct {
	Language string
	Brands   BrandSource
	Patterns PatternSource
	Logger   *slog.Logger
}

// Writer runs the content tasks.
type Writer struct {
	router   Router
	gen      *generation.Generator
	language string
	brands   BrandSource
	patterns PatternSource
	logger   *slog.Logger
}

// NewWriter creates a writer.
func NewWriter(r Router, gen *generation.Generator, opts Options) *Writer {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Brands == nil {
		opts.Brands = StaticBrand{}
	}
	if opts.Patterns == nil {
		opts.Patterns = StaticPatterns{}
	}
	return &Writer{
		router:   r,
		gen:      gen,
		language: opts.Language,
		brands:   opts.Brands,
		patterns: opts.Patterns,
		logger:   opts.Logger,
	}
}

// Language returns the configured content language.
func (w *Writer) Language() string {
	return w.language
}

// BrandTone returns the workspace brand tone, or "" when the source fails.
func (w *Writer) BrandTone(ctx context.Context, workspaceID string) string {
	tone, err := w.brands.BrandTone(ctx, workspaceID)
	if err != nil {
		w.logger.WarnContext(ctx, "brand tone unavailable", "error", err)
		return ""
	}
	return tone
}

// Enrich returns a copy of req with brand tone and retrieved patterns
// filled in. Source failures degrade to an unenriched request.
func (w *Writer) Enrich(ctx context.Context, workspaceID string, req types.GenerationRequest) types.GenerationRequest {
	if req.BrandTone == "" {
		req.BrandTone = w.BrandTone(ctx, workspaceID)
	}
	if len(req.RetrievedPatterns) == 0 {
		patterns, err := w.patterns.Patterns(ctx, workspaceID, req.FunnelStage, patternLimit)
		if err != nil {
			w.logger.WarnContext(ctx, "pattern retrieval failed", "error", err)
		} else {
			req.RetrievedPatterns = patterns
		}
	}
	return req
}

// GenerateCopy produces exactly three variants, one per angle, in canonical
// order.
func (w *Writer) GenerateCopy(ctx context.Context, workspaceID string, req types.GenerationRequest) (*generation.Result[types.CopyOutput], error) {
	req.Task = types.TaskGenerateCopy
	req = w.Enrich(ctx, workspaceID, req)

	route, err := w.router.Route(ctx, types.TaskGenerateCopy, workspaceID)
	if err != nil {
		return nil, err
	}

	p := copyPrompt(&req, w.language)
	res, err := generation.Generate[types.CopyOutput](ctx, w.gen, route, generation.Call{
		System: p.System,
		User:   p.User,
	})
	if err != nil {
		return nil, err
	}
	w.logger.InfoContext(ctx, "copy generated",
		"funnel_stage", req.FunnelStage,
		"patterns", len(req.RetrievedPatterns),
		"vendor", res.Vendor,
		"used_fallback", res.UsedFallback,
	)
	return res, nil
}

// GenerateVisual produces the visual brief for a post.
func (w *Writer) GenerateVisual(ctx context.Context, workspaceID string, req *VisualRequest) (*generation.Result[types.VisualPrompt], error) {
	route, err := w.router.Route(ctx, types.TaskGenerateVisual, workspaceID)
	if err != nil {
		return nil, err
	}

	p := visualPrompt(req, w.BrandTone(ctx, workspaceID), w.language)
	res, err := generation.GenerateChecked(ctx, w.gen, route, generation.Call{
		System: p.System,
		User:   p.User,
	}, func(v *types.VisualPrompt) error {
		if req.Format != "" && !strings.EqualFold(v.Format, req.Format) {
			return fmt.Errorf("format %q does not match requested %q", v.Format, req.Format)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.logger.InfoContext(ctx, "visual generated",
		"format", res.Value.Format,
		"slides", len(res.Value.Slides),
		"vendor", res.Vendor,
		"used_fallback", res.UsedFallback,
	)
	return res, nil
}
