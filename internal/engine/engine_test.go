package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/wayfinder/internal/backend"
	"github.com/davidbz/wayfinder/internal/backend/echo"
	"github.com/davidbz/wayfinder/internal/catalog"
	"github.com/davidbz/wayfinder/internal/costing"
	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/engine"
	"github.com/davidbz/wayfinder/internal/instance"
	"github.com/davidbz/wayfinder/internal/ledger"
	"github.com/davidbz/wayfinder/internal/routing"
	"github.com/davidbz/wayfinder/internal/scoring"
)

// failingHandle simulates a backend whose invocations fail.
type failingHandle struct {
	backendID string
}

func (h *failingHandle) Generate(_ context.Context, _ *domain.GenerateRequest) (*domain.GenerateResult, error) {
	return nil, errors.New("backend unavailable")
}

func (h *failingHandle) BackendID() string {
	return h.backendID
}

func newEngine(t *testing.T, failing bool) (*engine.Engine, *ledger.Ledger) {
	t.Helper()

	ctx := context.Background()
	cat := catalog.NewCatalog()
	require.NoError(t, cat.Register(ctx, domain.BackendDescriptor{
		ID:               "echo/echo4",
		Cost:             domain.TokenCost{InputPerMillion: 1.0, OutputPerMillion: 1.0},
		MaxContextTokens: 100000,
		Capabilities: []domain.Capability{
			domain.CapFastResponse, domain.CapCostEffective, domain.CapStructuredOutput,
		},
		PerformanceScore: 0.5,
	}))

	scorer, err := scoring.NewScorer(scoring.DefaultWeights())
	require.NoError(t, err)

	router, err := routing.NewRouter(
		routing.Config{DefaultBackendID: "echo/echo4"},
		cat,
		scorer,
		costing.NewEstimator(),
	)
	require.NoError(t, err)

	factory := backend.NewFactory()
	require.NoError(t, factory.RegisterBuilder("echo", func(_ context.Context, backendID, _ string) (domain.Handle, error) {
		if failing {
			return &failingHandle{backendID: backendID}, nil
		}
		return echo.NewHandle(backendID), nil
	}))

	usage := ledger.New()
	eng := engine.NewEngine(router, cat, instance.NewCache(factory), costing.NewEstimator(), usage)
	return eng, usage
}

func TestEngine_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("should route, invoke and record a successful request", func(t *testing.T) {
		eng, usage := newEngine(t, false)

		response, err := eng.Generate(ctx, &engine.GenerateRequest{
			Requirements: domain.TaskRequirements{
				Category:          "quick-lookup",
				ContextSizeTokens: 100,
			},
			Prompt: "ping pong",
		})

		require.NoError(t, err)
		require.Equal(t, "echo/echo4", response.Decision.BackendID)
		require.Equal(t, "ping pong", response.Content)
		require.Equal(t, 2, response.InputTokens)
		require.Equal(t, 2, response.OutputTokens)

		record, ok := usage.Get("echo/echo4", "quick-lookup")
		require.True(t, ok)
		require.Equal(t, int64(1), record.RequestCount)
		require.Equal(t, int64(4), record.TotalTokens)
		require.Equal(t, int64(1), record.SuccessCount)
	})

	t.Run("should charge actual usage, not the routing estimate", func(t *testing.T) {
		eng, usage := newEngine(t, false)

		_, err := eng.Generate(ctx, &engine.GenerateRequest{
			Requirements: domain.TaskRequirements{
				Category:          "quick-lookup",
				ContextSizeTokens: 50000, // far larger than the real prompt
			},
			Prompt: "two words",
		})

		require.NoError(t, err)

		record, ok := usage.Get("echo/echo4", "quick-lookup")
		require.True(t, ok)
		// 2 input + 2 output tokens at 1.0/M each.
		require.InDelta(t, 4.0/1_000_000, record.TotalCostUSD, 1e-12)
	})

	t.Run("should record a failed invocation", func(t *testing.T) {
		eng, usage := newEngine(t, true)

		_, err := eng.Generate(ctx, &engine.GenerateRequest{
			Requirements: domain.TaskRequirements{
				Category:          "quick-lookup",
				ContextSizeTokens: 100,
			},
			Prompt: "ping",
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "generation failed")

		record, ok := usage.Get("echo/echo4", "quick-lookup")
		require.True(t, ok)
		require.Equal(t, int64(1), record.RequestCount)
		require.Equal(t, int64(0), record.SuccessCount)
		require.Zero(t, record.SuccessRate())
	})

	t.Run("should reject an empty prompt", func(t *testing.T) {
		eng, _ := newEngine(t, false)

		_, err := eng.Generate(ctx, &engine.GenerateRequest{
			Requirements: domain.TaskRequirements{Category: "quick-lookup"},
		})

		require.Error(t, err)
	})
}

func TestEngine_UsageReport(t *testing.T) {
	t.Run("should aggregate recorded usage", func(t *testing.T) {
		eng, _ := newEngine(t, false)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := eng.Generate(ctx, &engine.GenerateRequest{
				Requirements: domain.TaskRequirements{Category: "quick-lookup", ContextSizeTokens: 10},
				Prompt:       "a b c",
			})
			require.NoError(t, err)
		}

		summary := eng.UsageReport()
		require.Equal(t, int64(3), summary.TotalRequests)
		require.Equal(t, int64(18), summary.TotalTokens)
	})
}

func TestEngine_Shutdown(t *testing.T) {
	t.Run("should drain the handle cache", func(t *testing.T) {
		eng, _ := newEngine(t, false)
		ctx := context.Background()

		_, err := eng.Generate(ctx, &engine.GenerateRequest{
			Requirements: domain.TaskRequirements{Category: "quick-lookup"},
			Prompt:       "ping",
		})
		require.NoError(t, err)

		require.NoError(t, eng.Shutdown(ctx))
	})
}
