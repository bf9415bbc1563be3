package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/davidbz/wayfinder/internal/backend/anthropic"
	"github.com/davidbz/wayfinder/internal/backend/google"
	"github.com/davidbz/wayfinder/internal/backend/openai"
)

// Config represents the process configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Catalog   CatalogConfig
	Routing   RoutingConfig
	Scoring   ScoringConfig
	Redis     RedisConfig
	OpenAI    openai.Config
	Anthropic anthropic.Config
	Google    google.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CatalogConfig locates the backend descriptor file.
type CatalogConfig struct {
	File  string `env:"CATALOG_FILE"  envDefault:"backends.yaml"`
	Watch bool   `env:"CATALOG_WATCH" envDefault:"false"`
}

// RoutingConfig contains router settings.
type RoutingConfig struct {
	DefaultBackend string `env:"ROUTER_DEFAULT_BACKEND" envDefault:"echo/echo4"`
}

// ScoringConfig exposes the suitability weights as configuration so call
// sites can bias decisions without re-implementing the algorithm.
type ScoringConfig struct {
	WeightPerformance float64 `env:"SCORING_WEIGHT_PERFORMANCE" envDefault:"0.4"`
	WeightCapability  float64 `env:"SCORING_WEIGHT_CAPABILITY"  envDefault:"0.3"`
	WeightCost        float64 `env:"SCORING_WEIGHT_COST"        envDefault:"0.2"`
	WeightSpeed       float64 `env:"SCORING_WEIGHT_SPEED"       envDefault:"0.1"`
}

// RedisConfig contains the optional usage event stream settings. The
// sink is disabled when Addr is empty.
type RedisConfig struct {
	Addr        string `env:"REDIS_ADDR"`
	Password    string `env:"REDIS_PASSWORD"`
	DB          int    `env:"REDIS_DB"           envDefault:"0"`
	UsageStream string `env:"REDIS_USAGE_STREAM" envDefault:"wayfinder:usage"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*CatalogConfig
	*RoutingConfig
	*ScoringConfig
	*RedisConfig
	OpenAI    *openai.Config
	Anthropic *anthropic.Config
	Google    *google.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		ServerConfig:  &cfg.Server,
		CORSConfig:    &cfg.CORS,
		CatalogConfig: &cfg.Catalog,
		RoutingConfig: &cfg.Routing,
		ScoringConfig: &cfg.Scoring,
		RedisConfig:   &cfg.Redis,
		OpenAI:        &cfg.OpenAI,
		Anthropic:     &cfg.Anthropic,
		Google:        &cfg.Google,
	}
}
