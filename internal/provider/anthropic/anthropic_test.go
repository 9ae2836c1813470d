package anthropic

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

func newServer(t *testing.T, status int, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body) //nolint:errcheck // test code
		if captured != nil {
			_ = json.Unmarshal(body, captured) //nolint:errcheck // test code
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = io.WriteString(w, `{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`)
			return
		}
		_, _ = io.WriteString(w, `{
			"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"{\"score\":7}"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":4}
		}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete_SchemaTravelsInSystemPrompt(t *testing.T) {
	var captured map[string]any
	srv := newServer(t, http.StatusOK, &captured)

	h, err := New(provider.Settings{Vendor: Vendor, Model: "claude-test", APIKey: "sk-ant-test", BaseURL: srv.URL})
	require.NoError(t, err)

	out, err := h.Complete(context.Background(), &provider.Request{
		System: "review this",
		User:   "post body",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score":7}`, out)

	system, ok := captured["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	text := system[0].(map[string]any)["text"].(string)
	assert.Contains(t, text, "review this")
	assert.Contains(t, text, `"type":"object"`)
	assert.EqualValues(t, defaultMaxTokens, captured["max_tokens"])
}

func TestComplete_ErrorIsProviderError(t *testing.T) {
	srv := newServer(t, http.StatusInternalServerError, nil)

	h, err := New(provider.Settings{Vendor: Vendor, Model: "claude-test", APIKey: "sk-ant-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = h.Complete(context.Background(), &provider.Request{User: "u"})
	require.Error(t, err)
	assert.True(t, llmerrors.IsKind(err, llmerrors.KindProviderError))
	assert.Contains(t, err.Error(), "500")
}
