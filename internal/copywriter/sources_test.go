package copywriter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

func TestStaticBrand(t *testing.T) {
	b := StaticBrand{Default: "clear", PerWorkspace: map[string]string{"ws-a": "bold", "ws-b": "  "}}

	tone, err := b.BrandTone(context.Background(), "ws-a")
	require.NoError(t, err)
	assert.Equal(t, "bold", tone)

	tone, _ = b.BrandTone(context.Background(), "ws-b")
	assert.Equal(t, "clear", tone)
	tone, _ = b.BrandTone(context.Background(), "ws-z")
	assert.Equal(t, "clear", tone)
}

func TestStaticPatterns_FiltersByBucketAndLimit(t *testing.T) {
	s := StaticPatterns{Items: []StaticPattern{
		{Pattern: types.Pattern{Kind: "hook", Text: "a"}, Bucket: "tofu"},
		{Pattern: types.Pattern{Kind: "hook", Text: "b"}},
		{Pattern: types.Pattern{Kind: "cta", Text: "c"}, Bucket: "BOFU"},
		{Pattern: types.Pattern{Kind: "cta", Text: "d"}, Bucket: "tofu"},
	}}

	got, err := s.Patterns(context.Background(), "ws", "tofu_problem", 2)
	require.NoError(t, err)
	assert.Equal(t, []types.Pattern{{Kind: "hook", Text: "a"}, {Kind: "hook", Text: "b"}}, got)

	got, _ = s.Patterns(context.Background(), "ws", "bofu_decision", 0)
	assert.Equal(t, []types.Pattern{{Kind: "hook", Text: "b"}, {Kind: "cta", Text: "c"}}, got)
}
