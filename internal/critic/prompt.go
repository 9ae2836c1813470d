package critic

import "github.com/blueberrycongee/copydesk/internal/prompt"

const outputContract = `Return only a JSON object with this shape:
{
  "evaluations": [
    {
      "variant": "<the variant id exactly as given>",
      "scores": {"detener": 0-5, "ganar": 0-5, "provocar": 0-5, "iniciar": 0-5},
      "findings": [{"category": "generic|unsupported_claim|jargon|weak_cta|weak_hook|length|formatting", "severity": "blocker|warning|suggestion", "detail": "..."}],
      "suggestions": ["..."]
    }
  ],
  "recommended_variant": "<one of the evaluated variant ids>",
  "recommendation_reason": "..."
}
Evaluate every variant exactly once and no others. At most 3 findings and 3 suggestions per variant. Scores are integers.`

// BuildPrompt assembles the critic prompt.
func BuildPrompt(req *Request) prompt.Prompt {
	var sys prompt.Builder
	sys.Line("You are a demanding LinkedIn editor scoring B2B posts with the DGPI rubric.")
	sys.Line("Score each dimension from 0 to 5:")
	sys.Line("- detener: does the first line stop the scroll?")
	sys.Line("- ganar: does the reader gain an insight worth their time?")
	sys.Line("- provocar: does it challenge an assumption or provoke a reaction?")
	sys.Line("- iniciar: does it start a conversation with a clear, low-friction CTA?")
	sys.Line("Flag generic phrasing, unsupported claims, jargon, weak hooks and CTAs, length and formatting problems.")
	sys.Line("Be strict: a 5 is rare. Write findings and suggestions in %s.", prompt.LanguageName(req.Language))
	sys.Field("Brand tone", req.BrandTone)
	sys.Blank()
	sys.Line("%s", outputContract)

	var user prompt.Builder
	user.Field("Funnel stage", string(req.FunnelStage))
	user.Line("%s", prompt.FunnelGuidance(req.FunnelStage))
	user.Field("Topic", req.Topic)
	user.Field("Keyword", req.Keyword)
	user.Field("Context", req.Context)
	user.Brief(req.WeeklyBrief)
	user.Blank()
	user.Line("Variants to evaluate:")
	for _, c := range req.Candidates {
		user.Blank()
		user.Line("<variant id=%q>", c.Variant)
		user.Line("%s", c.Content)
		user.Line("</variant>")
	}

	return prompt.Prompt{System: sys.String(), User: user.String()}
}

// evaluationTemperature keeps scoring stable across calls.
var evaluationTemperature = 0.2

func temperature() *float64 {
	t := evaluationTemperature
	return &t
}
