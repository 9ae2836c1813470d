package critic

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/pkg/types"
)

func TestVerdictFor_Boundaries(t *testing.T) {
	cases := []struct {
		total int
		want  types.Verdict
	}{
		{20, types.VerdictPass},
		{16, types.VerdictPass},
		{15, types.VerdictNeedsWork},
		{10, types.VerdictNeedsWork},
		{9, types.VerdictRewrite},
		{0, types.VerdictRewrite},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, VerdictFor(tc.total), "total=%d", tc.total)
	}
}

func TestRubricProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 500
	properties := gopter.NewProperties(params)

	score := gen.IntRange(0, MaxScore)

	properties.Property("total is the sum of the four scores", prop.ForAll(
		func(d, g, p, i int) bool {
			ev := Score("v", types.Scores{Detener: d, Ganar: g, Provocar: p, Iniciar: i}, nil, nil)
			return ev.Total == d+g+p+i && ev.Total >= 0 && ev.Total <= 4*MaxScore
		},
		score, score, score, score,
	))

	properties.Property("verdict depends only on the total", prop.ForAll(
		func(d, g, p, i int) bool {
			a := Score("a", types.Scores{Detener: d, Ganar: g, Provocar: p, Iniciar: i}, nil, nil)
			b := Score("b", types.Scores{Detener: i, Ganar: p, Provocar: g, Iniciar: d}, nil, nil)
			return a.Verdict == b.Verdict && a.Verdict == VerdictFor(a.Total)
		},
		score, score, score, score,
	))

	properties.Property("verdict is monotonic in the total", prop.ForAll(
		func(lo, hi int) bool {
			if lo > hi {
				lo, hi = hi, lo
			}
			return rank(VerdictFor(lo)) <= rank(VerdictFor(hi))
		},
		gen.IntRange(0, 20), gen.IntRange(0, 20),
	))

	properties.Property("recommendation outside the batch is rejected", prop.ForAll(
		func(n int, rec string) bool {
			cands := candidates(n)
			out := modelOutput(cands, rec)
			_, err := NewBatch(cands, out)
			inBatch := false
			for _, c := range cands {
				if c.Variant == rec {
					inBatch = true
				}
			}
			return (err == nil) == inBatch
		},
		gen.IntRange(1, MaxCandidates),
		gen.OneConstOf("v1", "v2", "v3", "v4", "", "story"),
	))

	properties.TestingRun(t)
}

func rank(v types.Verdict) int {
	switch v {
	case types.VerdictRewrite:
		return 0
	case types.VerdictNeedsWork:
		return 1
	default:
		return 2
	}
}

func candidates(n int) []types.CriticCandidate {
	out := make([]types.CriticCandidate, n)
	for i := range out {
		out[i] = types.CriticCandidate{Variant: fmt.Sprintf("v%d", i+1), Content: "post"}
	}
	return out
}

func modelScores(d, g, p, i int) *ModelScores {
	return &ModelScores{Detener: &d, Ganar: &g, Provocar: &p, Iniciar: &i}
}

func modelOutput(cands []types.CriticCandidate, rec string) *ModelOutput {
	out := &ModelOutput{RecommendedVariant: rec, RecommendationReason: "best hook"}
	for i := len(cands) - 1; i >= 0; i-- {
		out.Evaluations = append(out.Evaluations, ModelEvaluation{
			Variant: cands[i].Variant,
			Scores:  modelScores(4, 4, 4, i),
		})
	}
	return out
}

func TestNewBatch_OrdersByCandidatesAndDerivesVerdicts(t *testing.T) {
	cands := candidates(3)
	batch, err := NewBatch(cands, modelOutput(cands, "v2"))
	require.NoError(t, err)

	require.Len(t, batch.Evaluations, 3)
	for i, ev := range batch.Evaluations {
		assert.Equal(t, cands[i].Variant, ev.Variant)
		assert.Equal(t, ev.Scores.Total(), ev.Total)
		assert.Equal(t, VerdictFor(ev.Total), ev.Verdict)
		assert.NotNil(t, ev.Findings)
		assert.NotNil(t, ev.Suggestions)
	}
	assert.Equal(t, "v2", batch.RecommendedVariant)
	assert.Equal(t, 14, batch.Evaluations[2].Total)
	assert.Equal(t, types.VerdictNeedsWork, batch.Evaluations[2].Verdict)
}

func TestNewBatch_RejectsIdentifierMismatch(t *testing.T) {
	cands := candidates(2)

	missing := modelOutput(cands[:1], "v1")
	_, err := NewBatch(cands, missing)
	assert.ErrorContains(t, err, "not evaluated")

	extra := modelOutput(candidates(3), "v1")
	_, err = NewBatch(cands, extra)
	assert.ErrorContains(t, err, "unknown variant")

	twice := modelOutput(cands, "v1")
	twice.Evaluations = append(twice.Evaluations, twice.Evaluations[0])
	_, err = NewBatch(cands, twice)
	assert.ErrorContains(t, err, "twice")

	_, err = NewBatch(cands, nil)
	assert.Error(t, err)
}
