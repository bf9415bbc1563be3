package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/invopop/jsonschema"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/davidbz/wayfinder/internal/backend"
	"github.com/davidbz/wayfinder/internal/backend/anthropic"
	"github.com/davidbz/wayfinder/internal/backend/echo"
	"github.com/davidbz/wayfinder/internal/backend/google"
	"github.com/davidbz/wayfinder/internal/backend/openai"
	"github.com/davidbz/wayfinder/internal/catalog"
	"github.com/davidbz/wayfinder/internal/config"
	"github.com/davidbz/wayfinder/internal/costing"
	"github.com/davidbz/wayfinder/internal/domain"
	"github.com/davidbz/wayfinder/internal/engine"
	"github.com/davidbz/wayfinder/internal/httpserver"
	"github.com/davidbz/wayfinder/internal/httpserver/middleware"
	"github.com/davidbz/wayfinder/internal/instance"
	"github.com/davidbz/wayfinder/internal/ledger"
	ledgerredis "github.com/davidbz/wayfinder/internal/ledger/redis"
	"github.com/davidbz/wayfinder/internal/observability"
	"github.com/davidbz/wayfinder/internal/routing"
	"github.com/davidbz/wayfinder/internal/scoring"
)

const shutdownTimeout = 10 * time.Second

func main() {
	root := &cobra.Command{
		Use:   "wayfinder",
		Short: "Model selection and cost-routing engine",
	}
	root.AddCommand(newServeCmd(), newValidateCmd(), newSchemaCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the routing engine HTTP server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe()
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [backends-file]",
		Short: "Validate a backend descriptor file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Load().Catalog.File
			if len(args) > 0 {
				path = args[0]
			}

			descriptors, err := config.LoadBackends(path)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d backends OK\n", path, len(descriptors))
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the backend descriptor file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema := jsonschema.Reflect(&config.BackendsFile{})
			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func runServe() error {
	container := buildContainer()

	return container.Invoke(func(
		logger *zap.Logger,
		server *httpserver.Server,
		eng *engine.Engine,
		cfg *config.Config,
		cat domain.BackendCatalog,
	) error {
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Catalog.Watch {
			watcher, err := config.NewCatalogWatcher(cfg.Catalog.File, cat)
			if err != nil {
				return fmt.Errorf("failed to start catalog watcher: %w", err)
			}
			defer watcher.Close()
			watcher.Start(ctx)
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return eng.Shutdown(shutdownCtx)
	})
}

func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}

	// Backend catalog, loaded from the descriptor file.
	if err := container.Provide(func(cfg *config.CatalogConfig) (domain.BackendCatalog, error) {
		cat := catalog.NewCatalog()

		descriptors, err := config.LoadBackends(cfg.File)
		if err != nil {
			return nil, fmt.Errorf("failed to load backend catalog: %w", err)
		}
		if err := cat.Replace(context.Background(), descriptors); err != nil {
			return nil, fmt.Errorf("failed to populate backend catalog: %w", err)
		}
		return cat, nil
	}); err != nil {
		log.Fatalf("Failed to provide catalog: %v", err)
	}

	// Scoring and cost estimation
	if err := container.Provide(func(cfg *config.ScoringConfig) (*scoring.WeightedScorer, error) {
		return scoring.NewScorer(scoring.Weights{
			Performance:     cfg.WeightPerformance,
			CapabilityMatch: cfg.WeightCapability,
			Cost:            cfg.WeightCost,
			Speed:           cfg.WeightSpeed,
		})
	}); err != nil {
		log.Fatalf("Failed to provide scorer: %v", err)
	}
	if err := container.Provide(func() domain.CostEstimator {
		return costing.NewEstimator()
	}); err != nil {
		log.Fatalf("Failed to provide cost estimator: %v", err)
	}

	// Router
	if err := container.Provide(func(
		cfg *config.RoutingConfig,
		cat domain.BackendCatalog,
		scorer *scoring.WeightedScorer,
		estimator domain.CostEstimator,
	) (domain.Router, error) {
		return routing.NewRouter(routing.Config{DefaultBackendID: cfg.DefaultBackend}, cat, scorer, estimator)
	}); err != nil {
		log.Fatalf("Failed to provide router: %v", err)
	}

	// Backend factory and handle cache
	if err := container.Provide(buildFactory); err != nil {
		log.Fatalf("Failed to provide backend factory: %v", err)
	}
	if err := container.Provide(func(factory *backend.Factory) *instance.Cache {
		return instance.NewCache(factory)
	}); err != nil {
		log.Fatalf("Failed to provide handle cache: %v", err)
	}

	// Usage ledger with metrics and the optional Redis event sink
	if err := container.Provide(ledger.NewMetrics); err != nil {
		log.Fatalf("Failed to provide metrics: %v", err)
	}
	if err := container.Provide(func(cfg *config.RedisConfig, metrics *ledger.Metrics) (*ledger.Ledger, error) {
		opts := []ledger.Option{ledger.WithMetrics(metrics)}

		if cfg.Addr != "" {
			client := goredis.NewClient(&goredis.Options{
				Addr:     cfg.Addr,
				Password: cfg.Password,
				DB:       cfg.DB,
			})
			sink, err := ledgerredis.NewStreamSink(client, cfg.UsageStream)
			if err != nil {
				return nil, fmt.Errorf("failed to create usage sink: %w", err)
			}
			opts = append(opts, ledger.WithSink(sink))
		}
		return ledger.New(opts...), nil
	}); err != nil {
		log.Fatalf("Failed to provide usage ledger: %v", err)
	}

	// Engine
	if err := container.Provide(engine.NewEngine); err != nil {
		log.Fatalf("Failed to provide engine: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(httpserver.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(func(cfg *config.CORSConfig) middleware.Middleware {
		return middleware.BuildMiddlewareChain(cfg)
	}); err != nil {
		log.Fatalf("Failed to provide middleware: %v", err)
	}
	if err := container.Provide(httpserver.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}

// buildFactory wires the provider builders. Providers without
// credentials are simply not registered; routing to them surfaces a
// construction error the caller can act on.
func buildFactory(
	openaiCfg *openai.Config,
	anthropicCfg *anthropic.Config,
	googleCfg *google.Config,
) (*backend.Factory, error) {
	factory := backend.NewFactory()

	if err := factory.RegisterBuilder("echo", func(_ context.Context, backendID, _ string) (domain.Handle, error) {
		return echo.NewHandle(backendID), nil
	}); err != nil {
		return nil, err
	}

	if openaiCfg.APIKey != "" {
		if err := factory.RegisterBuilder("openai", func(_ context.Context, backendID, model string) (domain.Handle, error) {
			return openai.NewHandle(*openaiCfg, backendID, model)
		}); err != nil {
			return nil, err
		}
	}

	if anthropicCfg.APIKey != "" {
		if err := factory.RegisterBuilder("anthropic", func(_ context.Context, backendID, model string) (domain.Handle, error) {
			return anthropic.NewHandle(*anthropicCfg, backendID, model)
		}); err != nil {
			return nil, err
		}
	}

	if googleCfg.APIKey != "" {
		if err := factory.RegisterBuilder("google", func(ctx context.Context, backendID, model string) (domain.Handle, error) {
			return google.NewHandle(ctx, *googleCfg, backendID, model)
		}); err != nil {
			return nil, err
		}
	}

	return factory, nil
}
