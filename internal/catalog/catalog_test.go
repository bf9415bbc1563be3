package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/wayfinder/internal/catalog"
	"github.com/davidbz/wayfinder/internal/domain"
)

func descriptor(id string, maxContext int) domain.BackendDescriptor {
	return domain.BackendDescriptor{
		ID:               id,
		Cost:             domain.TokenCost{InputPerMillion: 1.0, OutputPerMillion: 2.0},
		MaxContextTokens: maxContext,
		Capabilities:     []domain.Capability{domain.CapStructuredOutput},
		PerformanceScore: 0.8,
	}
}

func TestCatalog_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("should register valid descriptor", func(t *testing.T) {
		cat := catalog.NewCatalog()

		err := cat.Register(ctx, descriptor("openai/gpt-5.2-instant", 400000))

		require.NoError(t, err)
		require.Equal(t, 1, cat.Len())
	})

	t.Run("should replace descriptor on same id", func(t *testing.T) {
		cat := catalog.NewCatalog()

		first := descriptor("openai/gpt-5.2-instant", 128000)
		second := descriptor("openai/gpt-5.2-instant", 400000)

		require.NoError(t, cat.Register(ctx, first))
		require.NoError(t, cat.Register(ctx, second))

		require.Equal(t, 1, cat.Len())
		got, ok := cat.Get(ctx, "openai/gpt-5.2-instant")
		require.True(t, ok)
		require.Equal(t, 400000, got.MaxContextTokens)
	})

	t.Run("should reject descriptor with empty id", func(t *testing.T) {
		cat := catalog.NewCatalog()

		err := cat.Register(ctx, descriptor("", 1000))

		require.Error(t, err)
		require.Contains(t, err.Error(), "id cannot be empty")
		require.Equal(t, 0, cat.Len())
	})

	t.Run("should reject descriptor with negative cost", func(t *testing.T) {
		cat := catalog.NewCatalog()

		d := descriptor("openai/gpt-5.2-instant", 1000)
		d.Cost.InputPerMillion = -0.5

		err := cat.Register(ctx, d)

		require.Error(t, err)
		require.Contains(t, err.Error(), "cost cannot be negative")
	})

	t.Run("should reject descriptor with unknown capability", func(t *testing.T) {
		cat := catalog.NewCatalog()

		d := descriptor("openai/gpt-5.2-instant", 1000)
		d.Capabilities = []domain.Capability{"telepathy"}

		err := cat.Register(ctx, d)

		require.Error(t, err)
		require.Contains(t, err.Error(), "unknown capability")
	})

	t.Run("should leave catalog unchanged when registration fails", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("echo/echo4", 1000)))

		bad := descriptor("openai/gpt-5.2-instant", 1000)
		bad.PerformanceScore = 1.5

		require.Error(t, cat.Register(ctx, bad))
		require.Equal(t, 1, cat.Len())
		_, ok := cat.Get(ctx, "openai/gpt-5.2-instant")
		require.False(t, ok)
	})
}

func TestCatalog_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("should swap full descriptor set", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("echo/echo4", 1000)))

		err := cat.Replace(ctx, []domain.BackendDescriptor{
			descriptor("openai/gpt-5.2-instant", 400000),
			descriptor("anthropic/claude-sonnet-4", 200000),
		})

		require.NoError(t, err)
		require.Equal(t, 2, cat.Len())
		_, ok := cat.Get(ctx, "echo/echo4")
		require.False(t, ok)
	})

	t.Run("should reject duplicate ids within a batch", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("echo/echo4", 1000)))

		err := cat.Replace(ctx, []domain.BackendDescriptor{
			descriptor("openai/gpt-5.2-instant", 400000),
			descriptor("openai/gpt-5.2-instant", 128000),
		})

		require.Error(t, err)
		require.Contains(t, err.Error(), "duplicate backend id")

		// Previous set stays in place.
		require.Equal(t, 1, cat.Len())
		_, ok := cat.Get(ctx, "echo/echo4")
		require.True(t, ok)
	})
}

func TestCatalog_CandidatesFor(t *testing.T) {
	ctx := context.Background()

	t.Run("should return only backends satisfying the context floor", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("small/model", 8000)))
		require.NoError(t, cat.Register(ctx, descriptor("large/model", 200000)))

		candidates := cat.CandidatesFor(ctx, &domain.TaskRequirements{ContextSizeTokens: 16000})

		require.Len(t, candidates, 1)
		require.Equal(t, "large/model", candidates[0].ID)

		for _, c := range candidates {
			require.GreaterOrEqual(t, c.MaxContextTokens, 16000)
		}
	})

	t.Run("should return empty slice when nothing qualifies", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("small/model", 8000)))

		candidates := cat.CandidatesFor(ctx, &domain.TaskRequirements{ContextSizeTokens: 64000})

		require.Empty(t, candidates)
	})

	t.Run("should return candidates in stable id order", func(t *testing.T) {
		cat := catalog.NewCatalog()
		require.NoError(t, cat.Register(ctx, descriptor("zeta/model", 8000)))
		require.NoError(t, cat.Register(ctx, descriptor("alpha/model", 8000)))

		candidates := cat.CandidatesFor(ctx, &domain.TaskRequirements{ContextSizeTokens: 1000})

		require.Len(t, candidates, 2)
		require.Equal(t, "alpha/model", candidates[0].ID)
		require.Equal(t, "zeta/model", candidates[1].ID)
	})
}
