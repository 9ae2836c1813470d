package providertest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Reply is one scripted outcome of Fake.Complete.
type Reply struct {
	Text string
	Err  error
	// Block makes the call wait for ctx cancellation.
	Block bool
}

// Fake is a scripted provider.Handle. Replies are consumed in order and the
// last one repeats.
type Fake struct {
	VendorName string
	ModelName  string

	mu       sync.Mutex
	replies  []Reply
	requests []provider.Request
	calls    atomic.Int32
}

// NewFake returns a fake handle that answers with replies.
func NewFake(vendor, model string, replies ...Reply) *Fake {
	return &Fake{VendorName: vendor, ModelName: model, replies: replies}
}

// Text is a shorthand for a successful reply.
func Text(s string) Reply { return Reply{Text: s} }

// Fail is a shorthand for a provider error reply.
func Fail(vendor string) Reply {
	return Reply{Err: llmerrors.NewProviderError(vendor, "fake", context.DeadlineExceeded)}
}

// Vendor implements provider.Handle.
func (f *Fake) Vendor() string { return f.VendorName }

// Model implements provider.Handle.
func (f *Fake) Model() string { return f.ModelName }

// Complete implements provider.Handle.
func (f *Fake) Complete(ctx context.Context, req *provider.Request) (string, error) {
	n := int(f.calls.Add(1))

	f.mu.Lock()
	f.requests = append(f.requests, *req)
	var r Reply
	switch {
	case len(f.replies) == 0:
		r = Reply{Text: "{}"}
	case n <= len(f.replies):
		r = f.replies[n-1]
	default:
		r = f.replies[len(f.replies)-1]
	}
	f.mu.Unlock()

	if r.Block {
		<-ctx.Done()
		return "", llmerrors.NewProviderError(f.VendorName, f.ModelName, ctx.Err())
	}
	if err := ctx.Err(); err != nil {
		return "", llmerrors.NewProviderError(f.VendorName, f.ModelName, err)
	}
	return r.Text, r.Err
}

// Calls returns how many times Complete ran.
func (f *Fake) Calls() int {
	return int(f.calls.Load())
}

// Requests returns copies of the received requests.
func (f *Fake) Requests() []provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provider.Request, len(f.requests))
	copy(out, f.requests)
	return out
}

// Factory returns a provider.Factory that always yields f.
func (f *Fake) Factory() provider.Factory {
	return func(provider.Settings) (provider.Handle, error) { return f, nil }
}
