// Package google provides a backend handle backed by the Gemini SDK.
package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/davidbz/wayfinder/internal/domain"
)

// Config contains Google credentials.
type Config struct {
	APIKey string `env:"GOOGLE_API_KEY"`
}

// Handle implements domain.Handle for Gemini models.
type Handle struct {
	backendID string
	model     string
	client    *genai.Client
}

// NewHandle creates a handle for one Gemini model.
func NewHandle(ctx context.Context, cfg Config, backendID, model string) (*Handle, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}

	return &Handle{
		backendID: backendID,
		model:     model,
		client:    client,
	}, nil
}

// Generate sends the prompt to Gemini and returns the completion.
func (h *Handle) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	resp, err := h.client.Models.GenerateContent(ctx, h.model, genai.Text(req.Prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("google API error: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, errors.New("google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	result := &domain.GenerateResult{
		Content:    content,
		FinishTime: time.Now(),
	}
	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return result, nil
}

// BackendID returns the backend identity this handle serves.
func (h *Handle) BackendID() string {
	return h.backendID
}
