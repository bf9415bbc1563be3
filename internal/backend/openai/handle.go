// Package openai provides a backend handle backed by the OpenAI SDK.
package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/davidbz/wayfinder/internal/domain"
)

const defaultMaxTokens = 4096

// Config contains OpenAI credentials and client settings.
type Config struct {
	APIKey     string `env:"OPENAI_API_KEY"`
	BaseURL    string `env:"OPENAI_BASE_URL"    envDefault:"https://api.openai.com/v1"`
	Timeout    int    `env:"OPENAI_TIMEOUT"     envDefault:"60"`
	MaxRetries int    `env:"OPENAI_MAX_RETRIES" envDefault:"3"`
}

// Handle implements domain.Handle for OpenAI models.
type Handle struct {
	backendID string
	model     string
	client    openai.Client
}

// NewHandle creates a handle for one OpenAI model.
func NewHandle(cfg Config, backendID, model string) (*Handle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(time.Duration(cfg.Timeout)*time.Second),
		option.WithMaxRetries(cfg.MaxRetries),
	)

	return &Handle{
		backendID: backendID,
		model:     model,
		client:    client,
	}, nil
}

// Generate sends the prompt to OpenAI and returns the completion.
func (h *Handle) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := h.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}

	return &domain.GenerateResult{
		Content:      resp.Choices[0].Message.Content,
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		FinishTime:   time.Now(),
	}, nil
}

// BackendID returns the backend identity this handle serves.
func (h *Handle) BackendID() string {
	return h.backendID
}
