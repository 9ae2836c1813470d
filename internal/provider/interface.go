// Package provider defines model handles: a configured vendor client bound to
// one model and one API key. Handles are built per request from the resolved
// credential and are safe to discard after use.
package provider

import (
	"context"
	"time"
)

// Handle sends one completion request to a model.
type Handle interface {
	// Vendor returns the vendor identifier (e.g. "openai", "anthropic").
	Vendor() string

	// Model returns the model name the handle targets.
	Model() string

	// Complete returns the raw text the model produced.
	// Failures are returned as *errors.Error with KindProviderError.
	Complete(ctx context.Context, req *Request) (string, error)
}

// Request is a single-turn completion.
type Request struct {
	System string
	User   string

	// Schema, when set, is the JSON schema the output must satisfy. Vendors
	// with native structured output enforce it; others receive it as an
	// instruction appended to the system prompt.
	Schema     any
	SchemaName string

	Temperature *float64
	MaxTokens   int
}

// Settings configures a handle.
type Settings struct {
	Vendor    string
	Model     string
	APIKey    string `json:"-"`
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Factory builds a handle from settings. Factories must not perform network
// I/O; the first request does.
type Factory func(Settings) (Handle, error)
