package copywriter

import (
	"context"
	"strings"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

// BrandSource returns the brand tone for a workspace.
type BrandSource interface {
	BrandTone(ctx context.Context, workspaceID string) (string, error)
}

// PatternSource returns hooks, CTAs and structures that worked before.
type PatternSource interface {
	Patterns(ctx context.Context, workspaceID string, stage types.FunnelStage, limit int) ([]types.Pattern, error)
}

// StaticBrand serves brand tones from configuration.
type StaticBrand struct {
	Default      string
	PerWorkspace map[string]string
}

// BrandTone implements BrandSource.
func (s StaticBrand) BrandTone(_ context.Context, workspaceID string) (string, error) {
	if tone, ok := s.PerWorkspace[workspaceID]; ok && strings.TrimSpace(tone) != "" {
		return tone, nil
	}
	return s.Default, nil
}

// StaticPattern is a configured pattern with an optional funnel bucket
// ("tofu", "mofu", "bofu"); an empty bucket matches every stage.
type StaticPattern struct {
	types.Pattern
	Bucket string
}

// StaticPatterns serves patterns from configuration.
type StaticPatterns struct {
	Items []StaticPattern
}

// Patterns implements PatternSource.
func (s StaticPatterns) Patterns(_ context.Context, _ string, stage types.FunnelStage, limit int) ([]types.Pattern, error) {
	bucket := stage.Bucket()
	out := make([]types.Pattern, 0, limit)
	for _, it := range s.Items {
		if it.Bucket != "" && !strings.EqualFold(it.Bucket, bucket) {
			continue
		}
		out = append(out, it.Pattern)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
