// Package critic scores post variants against the four-dimension rubric
// (Detener, Ganar, Provocar, Iniciar) and recommends one of them.
//
// The model supplies scores, findings and a recommendation; totals and
// verdicts are always computed here.
package critic

import (
	"fmt"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

// Verdict thresholds on the 0-20 total.
const (
	PassThreshold      = 16
	NeedsWorkThreshold = 10
	MaxScore           = 5
	MaxFindings        = 3
	MaxSuggestions     = 3
	MaxCandidates      = 3
)

// VerdictFor maps a total to a verdict: >= 16 pass, 10-15 needs work,
// below 10 rewrite.
func VerdictFor(total int) types.Verdict {
	switch {
	case total >= PassThreshold:
		return types.VerdictPass
	case total >= NeedsWorkThreshold:
		return types.VerdictNeedsWork
	default:
		return types.VerdictRewrite
	}
}

// Score builds a CriticEvaluation with derived total and verdict.
func Score(variant string, scores types.Scores, findings []types.Finding, suggestions []string) types.CriticEvaluation {
	if findings == nil {
		findings = []types.Finding{}
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	total := scores.Total()
	return types.CriticEvaluation{
		Variant:     variant,
		Scores:      scores,
		Total:       total,
		Findings:    findings,
		Suggestions: suggestions,
		Verdict:     VerdictFor(total),
	}
}

// ModelScores is the rubric as the model returns it. Pointers keep an
// omitted dimension distinguishable from a zero score.
type ModelScores struct {
	Detener  *int `json:"detener" validate:"required,min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Ganar    *int `json:"ganar" validate:"required,min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Provocar *int `json:"provocar" validate:"required,min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Iniciar  *int `json:"iniciar" validate:"required,min=0,max=5" jsonschema:"minimum=0,maximum=5"`
}

// Scores returns the validated rubric. Call it only after validation.
func (m *ModelScores) Scores() types.Scores {
	return types.Scores{
		Detener:  *m.Detener,
		Ganar:    *m.Ganar,
		Provocar: *m.Provocar,
		Iniciar:  *m.Iniciar,
	}
}

// ModelEvaluation is what the model returns for one variant.
type ModelEvaluation struct {
	Variant     string          `json:"variant" validate:"required"`
	Scores      *ModelScores    `json:"scores" validate:"required"`
	Findings    []types.Finding `json:"findings" validate:"max=3,dive"`
	Suggestions []string        `json:"suggestions" validate:"max=3,dive,required"`
}

// ModelOutput is the raw critic response before it is checked against the
// submitted candidates.
type ModelOutput struct {
	Evaluations          []ModelEvaluation `json:"evaluations" validate:"required,min=1,max=3,dive"`
	RecommendedVariant   string            `json:"recommended_variant" validate:"required"`
	RecommendationReason string            `json:"recommendation_reason" validate:"required,max=800"`
}

// NewBatch checks out against the submitted candidates and builds the
// batch. Every candidate must be evaluated exactly once, nothing else may
// be evaluated, and the recommendation must name an evaluated variant.
// Evaluations follow the candidates' order.
func NewBatch(candidates []types.CriticCandidate, out *ModelOutput) (*types.CriticBatch, error) {
	if out == nil {
		return nil, fmt.Errorf("empty critic output")
	}

	submitted := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		submitted[c.Variant] = struct{}{}
	}

	byVariant := make(map[string]ModelEvaluation, len(out.Evaluations))
	for _, e := range out.Evaluations {
		if _, ok := submitted[e.Variant]; !ok {
			return nil, fmt.Errorf("evaluated unknown variant %q", e.Variant)
		}
		if _, dup := byVariant[e.Variant]; dup {
			return nil, fmt.Errorf("variant %q evaluated twice", e.Variant)
		}
		byVariant[e.Variant] = e
	}

	batch := &types.CriticBatch{
		Evaluations:          make([]types.CriticEvaluation, 0, len(candidates)),
		RecommendationReason: out.RecommendationReason,
	}
	for _, c := range candidates {
		e, ok := byVariant[c.Variant]
		if !ok {
			return nil, fmt.Errorf("variant %q was not evaluated", c.Variant)
		}
		if e.Scores == nil {
			return nil, fmt.Errorf("variant %q has no scores", c.Variant)
		}
		batch.Evaluations = append(batch.Evaluations, Score(e.Variant, e.Scores.Scores(), e.Findings, e.Suggestions))
	}

	if _, ok := byVariant[out.RecommendedVariant]; !ok {
		return nil, fmt.Errorf("recommended variant %q is not in the batch", out.RecommendedVariant)
	}
	batch.RecommendedVariant = out.RecommendedVariant
	return batch, nil
}
