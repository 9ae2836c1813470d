// Package openai implements provider handles over the official OpenAI SDK.
// Any OpenAI-compatible endpoint works through Settings.BaseURL.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/blueberrycongee/copydesk/internal/provider"
	llmerrors "github.com/blueberrycongee/copydesk/pkg/errors"
)

// Vendor is the identifier for this adapter.
const Vendor = "openai"

// Handle is an OpenAI chat-completions handle.
type Handle struct {
	client    openai.Client
	model     string
	maxTokens int
}

// New builds a handle. Retries are disabled: fallback is decided one level up.
func New(s provider.Settings) (provider.Handle, error) {
	if s.APIKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(s.APIKey),
		option.WithMaxRetries(0),
	}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	if s.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: s.Timeout}))
	}

	return &Handle{
		client:    openai.NewClient(opts...),
		model:     s.Model,
		maxTokens: s.MaxTokens,
	}, nil
}

// Vendor implements provider.Handle.
func (h *Handle) Vendor() string { return Vendor }

// Model implements provider.Handle.
func (h *Handle) Model() string { return h.model }

// Complete implements provider.Handle. A request schema is sent as a
// json_schema response format with strict mode off, since output types
// carry optional fields.
func (h *Handle) Complete(ctx context.Context, req *provider.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if n := maxTokens(req, h.maxTokens); n > 0 {
		params.MaxCompletionTokens = openai.Int(int64(n))
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   provider.SchemaName(req),
					Schema: req.Schema,
					Strict: openai.Bool(false),
				},
			},
		}
	}

	resp, err := h.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", llmerrors.NewProviderError(Vendor, h.model, describe(err))
	}
	if len(resp.Choices) == 0 {
		return "", llmerrors.NewProviderError(Vendor, h.model, errors.New("empty choices"))
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", llmerrors.NewProviderError(Vendor, h.model, fmt.Errorf("refused: %s", choice.Message.Refusal))
	}
	return choice.Message.Content, nil
}

// describe reduces SDK errors to status and type; the SDK error text may
// echo request details.
func describe(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("status %d: %s", apiErr.StatusCode, apiErr.Type)
	}
	return err
}

func maxTokens(req *provider.Request, fallback int) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return fallback
}
