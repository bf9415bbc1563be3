// Package anthropic provides a backend handle backed by the Anthropic SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/davidbz/wayfinder/internal/domain"
)

const defaultMaxTokens = 4096

// Config contains Anthropic credentials.
type Config struct {
	APIKey string `env:"ANTHROPIC_API_KEY"`
}

// Handle implements domain.Handle for Claude models.
type Handle struct {
	backendID string
	model     string
	client    anthropic.Client
}

// NewHandle creates a handle for one Claude model.
func NewHandle(cfg Config, backendID, model string) (*Handle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	return &Handle{
		backendID: backendID,
		model:     model,
		client:    client,
	}, nil
}

// Generate sends the prompt to Claude and returns the completion.
func (h *Handle) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := h.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(h.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	return &domain.GenerateResult{
		Content:      content,
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
		FinishTime:   time.Now(),
	}, nil
}

// BackendID returns the backend identity this handle serves.
func (h *Handle) BackendID() string {
	return h.backendID
}
