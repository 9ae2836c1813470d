package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blueberrycongee/copydesk/internal/config"
)

func TestCORSMiddleware_RejectsDisallowedOrigin(t *testing.T) {
	called := false
	handler := corsMiddleware(config.CORSConfig{
		AllowedOrigins: []string{"https://app.example"},
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "http://localhost/generate-copy", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
	if called {
		t.Fatal("expected handler not to be called for disallowed origin")
	}
}

func TestCORSMiddleware_PreflightAllowed(t *testing.T) {
	called := false
	handler := corsMiddleware(config.CORSConfig{
		AllowedOrigins: []string{"https://app.example/"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         10 * time.Second,
	}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "http://localhost/critic-copy", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if called {
		t.Fatal("preflight must not reach the handler")
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("allow-origin = %q, want %q", got, "https://app.example")
	}
	if got := rr.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, Content-Type" {
		t.Fatalf("allow-headers = %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "10" {
		t.Fatalf("max-age = %q, want %q", got, "10")
	}
}

func TestCORSMiddleware_WildcardAndNoOrigin(t *testing.T) {
	handler := corsMiddleware(config.CORSConfig{AllowedOrigins: []string{"*"}},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodPost, "http://localhost/generate-copy", nil)
	req.Header.Set("Origin", "https://anything.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example" {
		t.Fatalf("allow-origin = %q", got)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "http://localhost/generate-copy", nil))
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("request without Origin should pass through untouched")
	}
}

func TestCORSMiddleware_DisabledWithoutOrigins(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := corsMiddleware(config.CORSConfig{}, next)

	req := httptest.NewRequest(http.MethodOptions, "http://localhost/generate-copy", nil)
	req.Header.Set("Origin", "https://app.example")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want pass-through", rr.Code)
	}
}
