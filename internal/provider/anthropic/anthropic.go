// Package anthropic implements provider handles over the Anthropic SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Vendor is the identifier for this adapter.
const Vendor = "anthropic"

// defaultMaxTokens applies when neither request nor settings set a limit;
// the Messages API requires one.
const defaultMaxTokens = 2048

// Handle is an Anthropic Messages handle.
type Handle struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// New builds a handle.
func New(s provider.Settings) (provider.Handle, error) {
	if s.APIKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(s.APIKey),
		anthropicoption.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, anthropicoption.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, anthropicoption.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	}
	maxTokens := s.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Handle{
		client:    anthropic.NewClient(opts...),
		model:     s.Model,
		maxTokens: maxTokens,
	}, nil
}

// Vendor implements provider.Handle.
func (h *Handle) Vendor() string { return Vendor }

// Model implements provider.Handle.
func (h *Handle) Model() string { return h.model }

// Complete implements provider.Handle. The schema travels in the system
// prompt.
func (h *Handle) Complete(ctx context.Context, req *provider.Request) (string, error) {
	system, err := provider.SystemWithSchema(req)
	if err != nil {
		return "", llmerrors.NewInternal("build system prompt", err)
	}

	maxTokens := h.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(h.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	msg, err := h.client.Messages.New(ctx, params)
	if err != nil {
		return "", llmerrors.NewProviderError(Vendor, h.model, describe(err))
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", llmerrors.NewProviderError(Vendor, h.model, fmt.Errorf("no text content (stop reason %s)", msg.StopReason))
	}
	return b.String(), nil
}

func describe(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d", apiErr.StatusCode)
	}
	return err
}
