// Package types defines the request-scoped data structures that flow through
// the generation pipeline: validated requests, generated variants, visual
// prompts, critic evaluations and review opinions.
//
// Struct tags carry the output contract twice: `validate` tags are enforced on
// every decoded model response, and `jsonschema` tags shape the schema sent to
// providers that support structured output.
package types //nolint:revive // package name is intentional

import (
	"fmt"
	"strings"
)

// Task identifies a content task for routing and metrics.
type Task string

// Content tasks.
const (
	TaskGenerateCopy   Task = "generate_copy"
	TaskCriticCopy     Task = "critic_copy"
	TaskGenerateVisual Task = "generate_visual"
	TaskSecondOpinion  Task = "second_opinion"
)

// FunnelStage is the buyer-journey phase a piece targets, e.g. "tofu_problem".
type FunnelStage string

// Bucket returns the top/middle/bottom prefix of the stage ("tofu", "mofu", "bofu").
func (s FunnelStage) Bucket() string {
	stage := strings.ToLower(string(s))
	if idx := strings.Index(stage, "_"); idx > 0 {
		return stage[:idx]
	}
	return stage
}

// WeeklyBrief is the editorial brief a workspace sets for the week.
type WeeklyBrief struct {
	Theme       string   `json:"theme,omitempty" validate:"max=300"`
	Objective   string   `json:"objective,omitempty" validate:"max=500"`
	KeyMessages []string `json:"key_messages,omitempty" validate:"max=10,dive,max=500"`
	Notes       string   `json:"notes,omitempty" validate:"max=2000"`
}

// IsZero reports whether the brief carries no content.
func (b *WeeklyBrief) IsZero() bool {
	return b == nil || (b.Theme == "" && b.Objective == "" && len(b.KeyMessages) == 0 && b.Notes == "")
}

// Pattern is a retrieved hook, CTA or structure that performed well before.
type Pattern struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// GenerationRequest is the validated input for a content task.
// It is built once per HTTP call and never mutated afterwards.
type GenerationRequest struct {
	Task              Task
	Topic             string
	FunnelStage       FunnelStage
	Keyword           string
	Objective         string
	Audience          string
	Context           string
	BrandTone         string
	RetrievedPatterns []Pattern
	WeeklyBrief       *WeeklyBrief
}

// VariantKind is one of the fixed content angles.
type VariantKind string

// Variant kinds, in canonical order.
const (
	VariantContrarian VariantKind = "contrarian"
	VariantStory      VariantKind = "story"
	VariantDataDriven VariantKind = "data_driven"
)

// VariantKinds lists every kind in the order responses are returned.
var VariantKinds = []VariantKind{VariantContrarian, VariantStory, VariantDataDriven}

// StructuredContent is the optional breakdown of a variant's parts.
type StructuredContent struct {
	Hook     string   `json:"hook" validate:"required"`
	Body     []string `json:"body" validate:"required,min=1,dive,required"`
	Closing  string   `json:"closing,omitempty"`
	Hashtags []string `json:"hashtags,omitempty" validate:"max=5"`
}

// GeneratedVariant is one candidate post.
type GeneratedVariant struct {
	Variant           VariantKind        `json:"variant" validate:"required,oneof=contrarian story data_driven" jsonschema:"enum=contrarian,enum=story,enum=data_driven"`
	Content           string             `json:"content" validate:"required"`
	Hook              string             `json:"hook" validate:"required"`
	CTA               string             `json:"cta" validate:"required"`
	StructuredContent *StructuredContent `json:"structured_content,omitempty" validate:"omitempty"`
}

// CopyOutput is the generate-copy output contract: exactly one variant per kind.
type CopyOutput struct {
	Variants []GeneratedVariant `json:"variants" validate:"len=3,dive" jsonschema:"minItems=3,maxItems=3"`
}

// Check enforces one variant per kind and puts them in canonical order.
func (o *CopyOutput) Check() error {
	byKind := make(map[VariantKind]GeneratedVariant, len(o.Variants))
	for _, v := range o.Variants {
		if _, dup := byKind[v.Variant]; dup {
			return fmt.Errorf("duplicate variant %q", v.Variant)
		}
		byKind[v.Variant] = v
	}

	ordered := make([]GeneratedVariant, 0, len(VariantKinds))
	for _, kind := range VariantKinds {
		v, ok := byKind[kind]
		if !ok {
			return fmt.Errorf("missing variant %q", kind)
		}
		ordered = append(ordered, v)
	}
	o.Variants = ordered
	return nil
}

// VisualSlide is one frame of a carousel.
type VisualSlide struct {
	Index       int    `json:"index" validate:"min=1"`
	Headline    string `json:"headline" validate:"required"`
	Body        string `json:"body,omitempty"`
	ImagePrompt string `json:"image_prompt" validate:"required"`
}

// VisualPrompt is the generate-visual-json output contract.
type VisualPrompt struct {
	Format         string        `json:"format" validate:"required"`
	Headline       string        `json:"headline" validate:"required,max=160"`
	Subheadline    string        `json:"subheadline,omitempty"`
	VisualConcept  string        `json:"visual_concept" validate:"required"`
	Composition    string        `json:"composition" validate:"required"`
	ColorPalette   []string      `json:"color_palette" validate:"min=1,max=6,dive,required" jsonschema:"minItems=1,maxItems=6"`
	Typography     string        `json:"typography,omitempty"`
	TextOverlays   []string      `json:"text_overlays,omitempty" validate:"max=5"`
	ImagePrompt    string        `json:"image_prompt" validate:"required"`
	NegativePrompt string        `json:"negative_prompt,omitempty"`
	AspectRatio    string        `json:"aspect_ratio" validate:"required,oneof=1:1 4:5 16:9 1.91:1 9:16" jsonschema:"enum=1:1,enum=4:5,enum=16:9,enum=1.91:1,enum=9:16"`
	Slides         []VisualSlide `json:"slides,omitempty" validate:"max=10,dive"`
}

// Check enforces format-specific rules.
func (v *VisualPrompt) Check() error {
	if strings.EqualFold(v.Format, "carousel") && len(v.Slides) < 2 {
		return fmt.Errorf("carousel requires at least 2 slides, got %d", len(v.Slides))
	}
	for i, s := range v.Slides {
		if s.Index != i+1 {
			return fmt.Errorf("slide %d has index %d", i+1, s.Index)
		}
	}
	return nil
}
