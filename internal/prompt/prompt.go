// Package prompt holds the building blocks shared by every content prompt:
// language, brand tone, funnel guidance and the weekly brief.
package prompt

import (
	"fmt"
	"strings"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

// Prompt is a system/user message pair.
type Prompt struct {
	System string
	User   string
}

// LanguageName returns the display name for a content language tag.
func LanguageName(tag string) string {
	switch strings.ToLower(tag) {
	case "", "es":
		return "Spanish"
	case "en":
		return "English"
	case "pt":
		return "Portuguese"
	default:
		return tag
	}
}

// FunnelGuidance describes what a post at the given stage should do.
func FunnelGuidance(stage types.FunnelStage) string {
	switch stage.Bucket() {
	case "tofu":
		return "Top of funnel: name a problem the audience feels but has not articulated. Educate, do not sell. The CTA invites a reaction or a comment."
	case "mofu":
		return "Middle of funnel: show how the problem gets solved and why the approach works. Use proof and specifics. The CTA invites a deeper conversation or a resource."
	case "bofu":
		return "Bottom of funnel: make the decision easy. Address objections, show outcomes and reduce risk. The CTA is a direct next step."
	default:
		return "Match the depth of the message to the reader's stage in the buying journey."
	}
}

// Builder accumulates prompt sections.
type Builder struct {
	sb strings.Builder
}

// Line writes a formatted line.
func (b *Builder) Line(format string, args ...any) {
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

// Field writes "label: value" when value is not blank.
func (b *Builder) Field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	b.Line("%s: %s", label, strings.TrimSpace(value))
}

// Bullets writes a titled list, skipping empty items. Nothing is written
// when items is empty.
func (b *Builder) Bullets(title string, items []string) {
	var kept []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			kept = append(kept, strings.TrimSpace(it))
		}
	}
	if len(kept) == 0 {
		return
	}
	b.Line("%s:", title)
	for _, it := range kept {
		b.Line("- %s", it)
	}
}

// Brief writes the weekly brief section when the brief has content.
func (b *Builder) Brief(brief *types.WeeklyBrief) {
	if brief.IsZero() {
		return
	}
	b.Blank()
	b.Line("Weekly brief (keep the piece aligned with it):")
	b.Field("Theme", brief.Theme)
	b.Field("Objective", brief.Objective)
	b.Bullets("Key messages", brief.KeyMessages)
	b.Field("Notes", brief.Notes)
}

// Blank writes an empty line.
func (b *Builder) Blank() {
	b.sb.WriteByte('\n')
}

// String returns the accumulated text.
func (b *Builder) String() string {
	return strings.TrimSpace(b.sb.String())
}
