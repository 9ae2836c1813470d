package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

func TestBuilder_SkipsBlankFields(t *testing.T) {
	var b Builder
	b.Field("Topic", "solar leasing")
	b.Field("Keyword", "   ")
	b.Bullets("Patterns", []string{"", " "})
	b.Brief(nil)

	assert.Equal(t, "Topic: solar leasing", b.String())
}

func TestBuilder_Brief(t *testing.T) {
	var b Builder
	b.Brief(&types.WeeklyBrief{Theme: "grid parity", KeyMessages: []string{"costs fell", ""}})

	out := b.String()
	assert.Contains(t, out, "Weekly brief")
	assert.Contains(t, out, "Theme: grid parity")
	assert.Contains(t, out, "- costs fell")
	assert.NotContains(t, out, "Objective")
}

func TestFunnelGuidance(t *testing.T) {
	assert.Contains(t, FunnelGuidance("tofu_problem"), "Top of funnel")
	assert.Contains(t, FunnelGuidance("MOFU"), "Middle of funnel")
	assert.Contains(t, FunnelGuidance("bofu_decision"), "Bottom of funnel")
	assert.Contains(t, FunnelGuidance("other"), "buying journey")
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Spanish", LanguageName(""))
	assert.Equal(t, "English", LanguageName("EN"))
	assert.Equal(t, "de", LanguageName("de"))
}
