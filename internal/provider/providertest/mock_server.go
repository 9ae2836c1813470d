// Package providertest provides test doubles for provider handles: an
// OpenAI-compatible HTTP server and a scripted in-memory handle.
package providertest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// RecordedRequest stores information about a received request.
type RecordedRequest struct {
	Path    string
	Body    []byte
	Headers http.Header
}

// MockResponse is one queued reply.
type MockResponse struct {
	Content    string
	StatusCode int // non-2xx produces an error body
	Delay      time.Duration
}

// MockServer simulates the OpenAI chat-completions endpoint.
type MockServer struct {
	server *httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	queue    []MockResponse
	fallback MockResponse
}

// NewMockServer starts a server; call Close when done.
func NewMockServer() *MockServer {
	m := &MockServer{fallback: MockResponse{Content: "{}"}}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", m.handleChatCompletions)
	mux.HandleFunc("/chat/completions", m.handleChatCompletions)

	m.server = httptest.NewServer(mux)
	return m
}

// URL returns the base URL to pass as Settings.BaseURL.
func (m *MockServer) URL() string {
	return m.server.URL + "/v1"
}

// Close shuts down the server.
func (m *MockServer) Close() {
	m.server.Close()
}

// Queue appends replies served in order; once empty the default is served.
func (m *MockServer) Queue(resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resps...)
}

// SetDefault sets the reply served when the queue is empty.
func (m *MockServer) SetDefault(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// Requests returns all recorded requests.
func (m *MockServer) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockServer) next() MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r
	}
	return m.fallback
}

func (m *MockServer) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body) //nolint:errcheck // test code
	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{Path: r.URL.Path, Body: body, Headers: r.Header.Clone()})
	m.mu.Unlock()

	var req struct {
		Model string `json:"model"`
	}
	_ = json.Unmarshal(body, &req) //nolint:errcheck // test code

	resp := m.next()
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if resp.StatusCode >= 300 {
		w.WriteHeader(resp.StatusCode)
		_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test code
			"error": map[string]any{
				"message": "mock failure",
				"type":    "api_error",
				"code":    fmt.Sprintf("error_%d", resp.StatusCode),
			},
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck // test code
		"id":      "chatcmpl-mock-" + uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": resp.Content},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 1, "completion_tokens": 1, "total_tokens": 2},
	})
}
