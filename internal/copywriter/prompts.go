package copywriter

import (
	"strings"

	"github.com/blueberrycongee/copydesk/internal/prompt"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

var variantAngles = map[types.VariantKind]string{
	types.VariantContrarian: "challenges a belief the audience holds and replaces it with a sharper one",
	types.VariantStory:      "tells a short, concrete story (client, project or founder moment) that lands the point",
	types.VariantDataDriven: "leads with a specific number or fact and explains what it means for the reader",
}

func copyPrompt(req *types.GenerationRequest, language string) prompt.Prompt {
	var sys prompt.Builder
	sys.Line("You are a senior B2B LinkedIn copywriter.")
	sys.Line("Write three variants of one post, one per angle:")
	for _, kind := range types.VariantKinds {
		sys.Line("- %s: %s", kind, variantAngles[kind])
	}
	sys.Line("Each variant has a scroll-stopping hook as its first line, a body of short paragraphs, and one clear CTA.")
	sys.Line("Keep each post under 1300 characters. No hashtags in the body; put up to 5 in structured_content.hashtags.")
	sys.Line("Avoid clichés, jargon and claims you cannot support with the context given.")
	sys.Line("Write in %s.", prompt.LanguageName(language))
	sys.Field("Brand tone", req.BrandTone)
	sys.Blank()
	sys.Line("%s", prompt.FunnelGuidance(req.FunnelStage))

	var user prompt.Builder
	user.Field("Topic", req.Topic)
	user.Field("Funnel stage", string(req.FunnelStage))
	user.Field("Keyword", req.Keyword)
	user.Field("Objective", req.Objective)
	user.Field("Audience", req.Audience)
	user.Field("Context", req.Context)
	user.Brief(req.WeeklyBrief)
	writePatterns(&user, req.RetrievedPatterns)
	user.Blank()
	user.Line("Return the variants as JSON: {\"variants\": [{\"variant\", \"content\", \"hook\", \"cta\", \"structured_content\"}]}, exactly one per angle.")

	return prompt.Prompt{System: sys.String(), User: user.String()}
}

func visualPrompt(req *VisualRequest, brandTone, language string) prompt.Prompt {
	var sys prompt.Builder
	sys.Line("You are an art director designing the visual that accompanies a LinkedIn post.")
	sys.Line("Produce a brief an image model and a designer can execute without further questions.")
	sys.Line("Headlines and overlays are short (under 8 words) and readable on mobile.")
	sys.Line("The image_prompt is in English; on-image text is in %s.", prompt.LanguageName(language))
	if strings.EqualFold(req.Format, "carousel") {
		sys.Line("Format is a carousel: provide 5 to 8 slides with sequential index starting at 1.")
	} else {
		sys.Line("Format is %s: slides are not needed.", req.Format)
	}
	sys.Field("Brand tone", brandTone)

	var user prompt.Builder
	user.Field("Format", req.Format)
	user.Field("Funnel stage", string(req.FunnelStage))
	user.Field("Topic", req.Topic)
	user.Field("Keyword", req.Keyword)
	user.Brief(req.WeeklyBrief)
	user.Field("Additional instructions", req.AdditionalInstructions)
	user.Blank()
	user.Line("<post>")
	user.Line("%s", req.PostContent)
	user.Line("</post>")

	return prompt.Prompt{System: sys.String(), User: user.String()}
}

func writePatterns(b *prompt.Builder, patterns []types.Pattern) {
	if len(patterns) == 0 {
		return
	}
	items := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p.Kind != "" {
			items = append(items, p.Kind+": "+p.Text)
		} else {
			items = append(items, p.Text)
		}
	}
	b.Blank()
	b.Bullets("Patterns that performed well for this brand (adapt, do not copy)", items)
}
