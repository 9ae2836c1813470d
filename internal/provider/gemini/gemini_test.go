package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

func TestComplete_JSONMode(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test code
		_ = json.Unmarshal(body, &captured) //nolint:errcheck // test code
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"a\":1}"}]},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	h, err := New(provider.Settings{Vendor: Vendor, Model: "gemini-test", APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := h.Complete(context.Background(), &provider.Request{
		System: "sys",
		User:   "user",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)

	gen, ok := captured["generationConfig"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "application/json", gen["responseMimeType"])
	assert.Contains(t, captured, "systemInstruction")
}

func TestComplete_ErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"code":429,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	defer srv.Close()

	h, err := New(provider.Settings{Vendor: Vendor, Model: "gemini-test", APIKey: "g-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = h.Complete(context.Background(), &provider.Request{User: "u"})
	require.Error(t, err)
	assert.True(t, llmerrors.IsKind(err, llmerrors.KindProviderError))
}
