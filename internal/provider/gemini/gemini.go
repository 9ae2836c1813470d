// Package gemini implements provider handles over the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Vendor is the identifier for this adapter.
const Vendor = "gemini"

// Handle is a Gemini generateContent handle.
type Handle struct {
	client    *genai.Client
	model     string
	maxTokens int
}

// New builds a handle against the Gemini Developer API.
func New(s provider.Settings) (provider.Handle, error) {
	if s.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cfg := &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	if s.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: s.Timeout}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Handle{client: client, model: s.Model, maxTokens: s.MaxTokens}, nil
}

// Vendor implements provider.Handle.
func (h *Handle) Vendor() string { return Vendor }

// Model implements provider.Handle.
func (h *Handle) Model() string { return h.model }

// Complete implements provider.Handle. A request schema is enforced through
// the JSON response mode.
func (h *Handle) Complete(ctx context.Context, req *provider.Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature != nil {
		t := float32(*req.Temperature)
		cfg.Temperature = &t
	}
	maxTokens := h.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseJsonSchema = req.Schema
	}

	resp, err := h.client.Models.GenerateContent(ctx, h.model, genai.Text(req.User), cfg)
	if err != nil {
		return "", llmerrors.NewProviderError(Vendor, h.model, describe(err))
	}
	text := resp.Text()
	if text == "" {
		return "", llmerrors.NewProviderError(Vendor, h.model, errors.New("empty response"))
	}
	return text, nil
}

func describe(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %s", apiErr.Code, apiErr.Status)
	}
	return err
}
