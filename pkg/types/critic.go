package types //nolint:revive // package name is intentional

// Verdict is the rubric outcome for one variant.
type Verdict string

// Verdicts.
const (
	VerdictPass      Verdict = "pass"
	VerdictNeedsWork Verdict = "needs_work"
	VerdictRewrite   Verdict = "rewrite"
)

// FindingCategory is the closed set of issue categories the critic may raise.
type FindingCategory string

// Finding categories.
const (
	CategoryGeneric          FindingCategory = "generic"
	CategoryUnsupportedClaim FindingCategory = "unsupported_claim"
	CategoryJargon           FindingCategory = "jargon"
	CategoryWeakCTA          FindingCategory = "weak_cta"
	CategoryWeakHook         FindingCategory = "weak_hook"
	CategoryLength           FindingCategory = "length"
	CategoryFormatting       FindingCategory = "formatting"
)

// Severity ranks a finding.
type Severity string

// Severities.
const (
	SeverityBlocker    Severity = "blocker"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// CriticCandidate is one variant submitted for evaluation.
type CriticCandidate struct {
	Variant string `json:"variant" validate:"required,max=40"`
	Content string `json:"content" validate:"required,max=6000"`
}

// Scores holds the four rubric dimensions, each 0-5.
type Scores struct {
	Detener  int `json:"detener" validate:"min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Ganar    int `json:"ganar" validate:"min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Provocar int `json:"provocar" validate:"min=0,max=5" jsonschema:"minimum=0,maximum=5"`
	Iniciar  int `json:"iniciar" validate:"min=0,max=5" jsonschema:"minimum=0,maximum=5"`
}

// Total is the sum of the four dimensions (0-20).
func (s Scores) Total() int {
	return s.Detener + s.Ganar + s.Provocar + s.Iniciar
}

// Finding is a single issue raised against a variant.
type Finding struct {
	Category FindingCategory `json:"category" validate:"required,oneof=generic unsupported_claim jargon weak_cta weak_hook length formatting" jsonschema:"enum=generic,enum=unsupported_claim,enum=jargon,enum=weak_cta,enum=weak_hook,enum=length,enum=formatting"`
	Severity Severity        `json:"severity" validate:"required,oneof=blocker warning suggestion" jsonschema:"enum=blocker,enum=warning,enum=suggestion"`
	Detail   string          `json:"detail,omitempty" validate:"max=400"`
}

// CriticEvaluation is the scored result for one variant. Total and Verdict
// are always derived from Scores.
type CriticEvaluation struct {
	Variant     string    `json:"variant"`
	Scores      Scores    `json:"scores"`
	Total       int       `json:"total"`
	Findings    []Finding `json:"findings"`
	Suggestions []string  `json:"suggestions"`
	Verdict     Verdict   `json:"verdict"`
}

// CriticBatch is the evaluation of one request's candidates. The recommended
// variant is always one of the evaluated identifiers.
type CriticBatch struct {
	Evaluations          []CriticEvaluation `json:"evaluations"`
	RecommendedVariant   string             `json:"recommended_variant"`
	RecommendationReason string             `json:"recommendation_reason"`
}

// Evaluation returns the evaluation for the given variant id.
func (b *CriticBatch) Evaluation(variant string) (CriticEvaluation, bool) {
	for _, e := range b.Evaluations {
		if e.Variant == variant {
			return e, true
		}
	}
	return CriticEvaluation{}, false
}
