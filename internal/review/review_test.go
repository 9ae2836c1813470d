package review

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blueberrycongee/copydesk/internal/credential"
	"github.com/blueberrycongee/copydesk/internal/generation"
	"github.com/blueberrycongee/copydesk/internal/provider/providertest"
	"github.com/blueberrycongee/copydesk/internal/router"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
	"github.com/blueberrycongee/copydesk/pkg/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const opinionJSON = `{"score":7,"strengths":["clear hook"],"weaknesses":["long"],"recommendation":"revise","summary":"Solid, trim the middle."}`

type stubRouter struct {
	route *router.Route
	err   error
}

func (s *stubRouter) Route(context.Context, types.Task, string) (*router.Route, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.route, nil
}

func reviewRoute(h *providertest.Fake, fallback *providertest.Fake) *router.Route {
	rt := &router.Route{
		Task:    types.TaskSecondOpinion,
		Primary: router.Target{Slot: credential.ReviewLLM, Handle: h},
	}
	if fallback != nil {
		rt.Fallback = &router.Target{Slot: credential.FallbackLLM, Handle: fallback}
	}
	return rt
}

func newReviewer(r Router, timeout time.Duration) *Reviewer {
	return New(r, generation.New(generation.Options{}), func() time.Duration { return timeout }, nil)
}

func TestReview_ReturnsOpinion(t *testing.T) {
	h := providertest.NewFake("anthropic", "r", providertest.Text(opinionJSON))

	op := newReviewer(&stubRouter{route: reviewRoute(h, nil)}, time.Second).
		Review(context.Background(), "ws-a", "post body", Context{Kind: "copy", Language: "en"})
	require.NotNil(t, op)
	assert.Equal(t, 7, op.Score)
	assert.Equal(t, types.RecommendRevise, op.Recommendation)
	assert.Equal(t, "anthropic", op.Provider)
	assert.Contains(t, h.Requests()[0].User, "post body")
	assert.NotNil(t, h.Requests()[0].Schema)
}

func TestReview_FailuresYieldNil(t *testing.T) {
	cases := map[string]Router{
		"no key": &stubRouter{err: llmerrors.NewNoKeyConfigured("review_llm", "set it")},
		"provider error": &stubRouter{route: reviewRoute(
			providertest.NewFake("anthropic", "r", providertest.Fail("anthropic")), nil)},
		"parse failure": &stubRouter{route: reviewRoute(
			providertest.NewFake("anthropic", "r", providertest.Text("Looks great to me!")), nil)},
		"schema invalid": &stubRouter{route: reviewRoute(
			providertest.NewFake("anthropic", "r", providertest.Text(`{"score":42,"recommendation":"ship","summary":"x"}`)), nil)},
		"missing score": &stubRouter{route: reviewRoute(
			providertest.NewFake("anthropic", "r", providertest.Text(`{"strengths":[],"weaknesses":[],"recommendation":"publish","summary":"x"}`)), nil)},
	}
	for name, r := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, newReviewer(r, time.Second).Review(context.Background(), "", "content", Context{}))
		})
	}
}

func TestReview_ZeroScoreIsKept(t *testing.T) {
	h := providertest.NewFake("anthropic", "r", providertest.Text(`{"score":0,"strengths":[],"weaknesses":["off-brand"],"recommendation":"rewrite","summary":"Start over."}`))

	op := newReviewer(&stubRouter{route: reviewRoute(h, nil)}, time.Second).
		Review(context.Background(), "", "content", Context{})
	require.NotNil(t, op)
	assert.Equal(t, 0, op.Score)
	assert.Equal(t, types.RecommendRewrite, op.Recommendation)
}

func TestReview_NeverUsesFallback(t *testing.T) {
	primary := providertest.NewFake("anthropic", "r", providertest.Fail("anthropic"))
	fallback := providertest.NewFake("openai", "f", providertest.Text(opinionJSON))

	op := newReviewer(&stubRouter{route: reviewRoute(primary, fallback)}, time.Second).
		Review(context.Background(), "", "content", Context{})
	assert.Nil(t, op)
	assert.Equal(t, 0, fallback.Calls())
}

func TestReview_TimeoutYieldsNil(t *testing.T) {
	h := providertest.NewFake("anthropic", "r", providertest.Reply{Block: true})

	start := time.Now()
	op := newReviewer(&stubRouter{route: reviewRoute(h, nil)}, 30*time.Millisecond).
		Review(context.Background(), "", "content", Context{})
	assert.Nil(t, op)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStartAwait_DoesNotBlockPastDeadline(t *testing.T) {
	h := providertest.NewFake("anthropic", "r", providertest.Reply{Block: true})
	rv := newReviewer(&stubRouter{route: reviewRoute(h, nil)}, 200*time.Millisecond)

	pending := rv.Start(context.Background(), "", "content", Context{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Nil(t, pending.Await(ctx))
	assert.Less(t, time.Since(start), 150*time.Millisecond)

	// The background review still ends on its own deadline.
	<-pending.done
}

func TestStartAwait_ReturnsCompletedOpinion(t *testing.T) {
	h := providertest.NewFake("anthropic", "r", providertest.Text(opinionJSON))
	rv := newReviewer(&stubRouter{route: reviewRoute(h, nil)}, time.Second)

	pending := rv.Start(context.Background(), "", "content", Context{Kind: "visual"})
	op := pending.Await(context.Background())
	require.NotNil(t, op)
	assert.Equal(t, 7, op.Score)

	var none *Pending
	assert.Nil(t, none.Await(context.Background()))
}
