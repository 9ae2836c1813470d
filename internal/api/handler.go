// Package api provides the HTTP handlers for the content endpoints. Each
// handler admits the request through the gate, runs its content task and,
// where applicable, attaches a second opinion.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/blueberrycongee/copydesk/internal/copywriter"
	"github.com/blueberrycongee/copydesk/internal/critic"
	"github.com/blueberrycongee/copydesk/internal/gate"
	"github.com/blueberrycongee/copydesk/internal/review"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

// Handler serves the content endpoints.
type Handler struct {
	gate     *gate.Gate
	writer   *copywriter.Writer
	critic   *critic.Evaluator
	reviewer *review.Reviewer
	logger   *slog.Logger
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Gate     *gate.Gate
	Writer   *copywriter.Writer
	Critic   *critic.Evaluator
	Reviewer *review.Reviewer
	Logger   *slog.Logger
}

// NewHandler creates a handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Handler{
		gate:     d.Gate,
		writer:   d.Writer,
		critic:   d.Critic,
		reviewer: d.Reviewer,
		logger:   d.Logger,
	}
}

// GenerateCopyRequest is the body of POST /generate-copy.
type GenerateCopyRequest struct {
	Topic       string             `json:"topic" validate:"notblank,max=300"`
	FunnelStage types.FunnelStage  `json:"funnel_stage" validate:"required,funnel_stage"`
	Keyword     string             `json:"keyword,omitempty" validate:"max=100"`
	Objective   string             `json:"objective,omitempty" validate:"max=500"`
	Audience    string             `json:"audience,omitempty" validate:"max=300"`
	Context     string             `json:"context,omitempty" validate:"max=4000"`
	WeeklyBrief *types.WeeklyBrief `json:"weekly_brief,omitempty" validate:"omitempty"`
}

// CriticCopyRequest is the body of POST /critic-copy.
type CriticCopyRequest struct {
	Variants    []types.CriticCandidate `json:"variants" validate:"required,min=1,max=3,unique=Variant,dive"`
	FunnelStage types.FunnelStage       `json:"funnel_stage" validate:"required,funnel_stage"`
	Topic       string                  `json:"topic,omitempty" validate:"max=300"`
	Keyword     string                  `json:"keyword,omitempty" validate:"max=100"`
	Context     string                  `json:"context,omitempty" validate:"max=4000"`
	WeeklyBrief *types.WeeklyBrief      `json:"weekly_brief,omitempty" validate:"omitempty"`
}

// GenerateVisualRequest is the body of POST /generate-visual-json.
type GenerateVisualRequest struct {
	PostContent            string             `json:"post_content" validate:"notblank,max=6000"`
	FunnelStage            types.FunnelStage  `json:"funnel_stage" validate:"required,funnel_stage"`
	Format                 string             `json:"format" validate:"required,oneof=single_image carousel quote_card infographic"`
	Topic                  string             `json:"topic,omitempty" validate:"max=300"`
	Keyword                string             `json:"keyword,omitempty" validate:"max=100"`
	AdditionalInstructions string             `json:"additional_instructions,omitempty" validate:"max=1000"`
	WeeklyBrief            *types.WeeklyBrief `json:"weekly_brief,omitempty" validate:"omitempty"`
}

// CopyData is the data of a generate-copy response.
type CopyData struct {
	Variants []types.GeneratedVariant `json:"variants"`
}

// ContentResponse carries generated content and its second opinion, which
// is null when none could be obtained.
type ContentResponse[T any] struct {
	Data   T                    `json:"data"`
	Review *types.ReviewOpinion `json:"review"`
}

// DataResponse carries a result without a second opinion.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

// GenerateCopy handles POST /generate-copy.
func (h *Handler) GenerateCopy(w http.ResponseWriter, r *http.Request) {
	var body GenerateCopyRequest
	p, err := h.gate.Admit(r, gate.PolicyGeneration, &body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := gate.WithPrincipal(r.Context(), p)

	res, err := h.writer.GenerateCopy(ctx, p.WorkspaceID, types.GenerationRequest{
		Topic:       strings.TrimSpace(body.Topic),
		FunnelStage: body.FunnelStage,
		Keyword:     body.Keyword,
		Objective:   body.Objective,
		Audience:    body.Audience,
		Context:     body.Context,
		WeeklyBrief: body.WeeklyBrief,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pending := h.reviewer.Start(ctx, p.WorkspaceID, variantsText(res.Value.Variants), review.Context{
		Kind:        "copy",
		FunnelStage: body.FunnelStage,
		Topic:       body.Topic,
		BrandTone:   h.writer.BrandTone(ctx, p.WorkspaceID),
		Language:    h.writer.Language(),
	})
	writeJSON(w, http.StatusOK, ContentResponse[CopyData]{
		Data:   CopyData{Variants: res.Value.Variants},
		Review: h.awaitReview(ctx, pending),
	})
}

// CriticCopy handles POST /critic-copy.
func (h *Handler) CriticCopy(w http.ResponseWriter, r *http.Request) {
	var body CriticCopyRequest
	p, err := h.gate.Admit(r, gate.PolicyChat, &body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := gate.WithPrincipal(r.Context(), p)

	batch, err := h.critic.Evaluate(ctx, p.WorkspaceID, &critic.Request{
		Candidates:  body.Variants,
		FunnelStage: body.FunnelStage,
		Topic:       body.Topic,
		Keyword:     body.Keyword,
		Context:     body.Context,
		WeeklyBrief: body.WeeklyBrief,
		BrandTone:   h.writer.BrandTone(ctx, p.WorkspaceID),
		Language:    h.writer.Language(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DataResponse[*types.CriticBatch]{Data: batch})
}

// GenerateVisual handles POST /generate-visual-json.
func (h *Handler) GenerateVisual(w http.ResponseWriter, r *http.Request) {
	var body GenerateVisualRequest
	p, err := h.gate.Admit(r, gate.PolicyGeneration, &body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx := gate.WithPrincipal(r.Context(), p)

	res, err := h.writer.GenerateVisual(ctx, p.WorkspaceID, &copywriter.VisualRequest{
		PostContent:            body.PostContent,
		FunnelStage:            body.FunnelStage,
		Format:                 body.Format,
		Topic:                  body.Topic,
		Keyword:                body.Keyword,
		AdditionalInstructions: body.AdditionalInstructions,
		WeeklyBrief:            body.WeeklyBrief,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	brief, err := json.MarshalIndent(res.Value, "", "  ")
	var pending *review.Pending
	if err == nil {
		pending = h.reviewer.Start(ctx, p.WorkspaceID, string(brief), review.Context{
			Kind:        "visual",
			FunnelStage: body.FunnelStage,
			Topic:       body.Topic,
			Language:    h.writer.Language(),
		})
	}
	writeJSON(w, http.StatusOK, ContentResponse[*types.VisualPrompt]{
		Data:   res.Value,
		Review: h.awaitReview(ctx, pending),
	})
}

// awaitReview waits for a pending review no longer than the review timeout.
func (h *Handler) awaitReview(ctx context.Context, pending *review.Pending) *types.ReviewOpinion {
	ctx, cancel := context.WithTimeout(ctx, h.reviewer.Timeout())
	defer cancel()
	return pending.Await(ctx)
}

func variantsText(variants []types.GeneratedVariant) string {
	var sb strings.Builder
	for i, v := range variants {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString("[")
		sb.WriteString(string(v.Variant))
		sb.WriteString("]\n")
		sb.WriteString(v.Content)
	}
	return sb.String()
}
