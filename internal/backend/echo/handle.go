// Package echo provides a backend handle that echoes back the prompt.
// It makes no external API calls, providing deterministic responses for
// testing and development purposes.
package echo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/observability"
)

// Handle implements domain.Handle entirely in-memory.
type Handle struct {
	backendID string
}

// NewHandle creates an echo handle for the backend id.
// No configuration is required as this handle operates entirely in-memory.
func NewHandle(backendID string) *Handle {
	return &Handle{backendID: backendID}
}

// Generate echoes the prompt back as the completion.
func (h *Handle) Generate(ctx context.Context, req *domain.GenerateRequest) (*domain.GenerateResult, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	content := req.Prompt
	inputTokens := countTokens(req.Prompt)
	outputTokens := inputTokens // Echo returns same size

	logger.Debug("echo completed",
		observability.Int("input_tokens", inputTokens),
		observability.Int("output_tokens", outputTokens),
	)

	return &domain.GenerateResult{
		Content:      content,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		FinishTime:   time.Now(),
	}, nil
}

// BackendID returns the backend identity this handle serves.
func (h *Handle) BackendID() string {
	return h.backendID
}

// countTokens provides simple word-based token counting.
func countTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Fields(text))
}
