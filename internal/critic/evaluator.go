package critic

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/blueberrycongee/copydesk/internal/generation"
	"github.com/blueberrycongee/copydesk/internal/metrics"
	"github.com/blueberrycongee/copydesk/internal/router"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// Router resolves the route for a task.
type Router interface {
	Route(ctx context.Context, task types.Task, workspaceID string) (*router.Route, error)
}

// Request is a critic call.
type Request struct {
	Candidates  []types.CriticCandidate
	FunnelStage types.FunnelStage
	Topic       string
	Keyword     string
	Context     string
	WeeklyBrief *types.WeeklyBrief
	BrandTone   string
	Language    string
}

// Evaluator scores candidates through the structured generator, inheriting
// its fallback behavior.
type Evaluator struct {
	router Router
	gen    *generation.Generator
	logger *slog.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(r Router, gen *generation.Generator, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{router: r, gen: gen, logger: logger}
}

// Evaluate scores every candidate once and recommends one of them.
func (e *Evaluator) Evaluate(ctx context.Context, workspaceID string, req *Request) (*types.CriticBatch, error) {
	if err := checkCandidates(req.Candidates); err != nil {
		return nil, err
	}

	route, err := e.router.Route(ctx, types.TaskCriticCopy, workspaceID)
	if err != nil {
		return nil, err
	}

	p := BuildPrompt(req)
	check := func(out *ModelOutput) error {
		_, err := NewBatch(req.Candidates, out)
		return err
	}
	res, err := generation.GenerateChecked(ctx, e.gen, route, generation.Call{
		System:      p.System,
		User:        p.User,
		FreeText:    true,
		Temperature: temperature(),
	}, check)
	if err != nil {
		return nil, err
	}

	batch, err := NewBatch(req.Candidates, res.Value)
	if err != nil {
		return nil, llmerrors.NewSchemaInvalid(res.Vendor, res.Model, "", err)
	}
	for _, ev := range batch.Evaluations {
		metrics.RecordVerdict(string(ev.Verdict))
	}
	e.logger.InfoContext(ctx, "critic batch evaluated",
		"candidates", len(batch.Evaluations),
		"recommended", batch.RecommendedVariant,
		"vendor", res.Vendor,
		"used_fallback", res.UsedFallback,
	)
	return batch, nil
}

func checkCandidates(cands []types.CriticCandidate) error {
	if len(cands) == 0 || len(cands) > MaxCandidates {
		return llmerrors.NewInvalidInput(fmt.Sprintf("variants must have between 1 and %d items", MaxCandidates))
	}
	seen := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		if _, dup := seen[c.Variant]; dup {
			return llmerrors.NewInvalidInput(fmt.Sprintf("variant %q is duplicated", c.Variant))
		}
		seen[c.Variant] = struct{}{}
	}
	return nil
}
