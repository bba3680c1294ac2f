// Package quill provides a top-level convenience entry point for wiring
// a fully instrumented session with minimal boilerplate.
//
// Usage:
//
//	import "github.com/quill-ai/quill"
//
//	s, err := quill.Start(ctx)
//	s, err := quill.Start(ctx, quill.WithConfigPath("quill.yaml"))
//	defer s.Shutdown(ctx)
//
//	s.Tracker.TrackToolCall(ctx, metrics.ToolCallEvent{...})
//
// Start loads configuration, initializes the OTel SDK, creates the
// instrument registry and the session tracker in one call. When telemetry
// is disabled in configuration, every recording call is a no-op.
package quill

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quill-ai/quill/config"
	"github.com/quill-ai/quill/internal/telemetry"
	"github.com/quill-ai/quill/metrics"
	"github.com/quill-ai/quill/stats"
	"github.com/quill-ai/quill/tokenizer"
)

// Session bundles the wired components of an instrumented run.
type Session struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *metrics.Registry
	Tracker  *stats.SessionTracker

	providers *telemetry.Providers
}

type options struct {
	configPath string
	config     *config.Config
	logger     *zap.Logger
}

// Option configures the session created by [Start].
type Option func(*options)

// WithConfigPath loads configuration from the given YAML file.
func WithConfigPath(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithConfig uses a pre-built configuration, skipping file and env loading.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.config = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Start wires configuration, telemetry and the session tracker.
// The returned Session must be shut down via [Session.Shutdown] to flush
// buffered measurements.
func Start(ctx context.Context, opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	cfg := o.config
	if cfg == nil {
		loaded, err := config.NewLoader().WithConfigPath(o.configPath).Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
	}

	providers, err := telemetry.Init(cfg.Telemetry, cfg.Session.ID, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	tokenizer.RegisterOpenAITokenizers()

	registry := metrics.NewRegistry(logger)
	if err := registry.Initialize(providers.MeterProvider(), cfg); err != nil {
		shutdownErr := providers.Shutdown(ctx)
		if shutdownErr != nil {
			logger.Warn("telemetry shutdown after failed init", zap.Error(shutdownErr))
		}
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	return &Session{
		Config:    cfg,
		Logger:    logger,
		Registry:  registry,
		Tracker:   stats.NewSessionTracker(registry, stats.WithCharsPerToken(cfg.Tokenizer.CharsPerToken)),
		providers: providers,
	}, nil
}

// Shutdown flushes buffered measurements and closes exporters.
func (s *Session) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.providers.ForceFlush(ctx); err != nil {
		s.Logger.Warn("force flush failed", zap.Error(err))
	}
	return s.providers.Shutdown(ctx)
}
