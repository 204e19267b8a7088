// Package commands provides the lexdef CLI. All commands share one
// dependency-injected App handle; there is no global state.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lexdef/lexdef/config"
	"github.com/lexdef/lexdef/duplicate"
	"github.com/lexdef/lexdef/generate"
	"github.com/lexdef/lexdef/knowledge"
	"github.com/lexdef/lexdef/llm"
	"github.com/lexdef/lexdef/rules"
	"github.com/lexdef/lexdef/storage"
	"github.com/lexdef/lexdef/validation"
)

// App holds the wired application. It is constructed once at startup and
// passed by reference into every command.
type App struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        storage.Store
	Cache        *rules.Cache
	Engine       *validation.Engine
	Gate         *duplicate.Gate
	Client       *llm.Client
	Orchestrator *generate.Orchestrator
	Knowledge    *knowledge.Service
	Metrics      *prometheus.Registry

	nc *nats.Conn
}

// NewApp wires the application from configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: prometheus.NewRegistry(),
	}

	if err := app.connectStorage(ctx, cfg); err != nil {
		return nil, err
	}

	registry := cfg.Registry()
	retry := llm.DefaultRetryConfig()
	if cfg.Model.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.Model.MaxAttempts
	}
	app.Client = llm.NewClient(registry,
		llm.WithRetryConfig(retry),
		llm.WithLogger(logger))

	loader := rules.NewLoader(cfg.Rules.Patterns, logger)
	app.Cache = rules.NewCache(cfg.Rules.CacheCapacity, cfg.Rules.CacheTTL, loader.Load)

	app.Engine = validation.NewEngine(app.Cache, validation.Config{
		HardMinScore:     cfg.Validation.HardMinScore,
		CategoryMinimums: cfg.Validation.CategoryMinimums,
		Workers:          cfg.Validation.Workers,
	},
		validation.WithUniquenessChecker(app.uniqueness()),
		validation.WithLogger(logger))

	app.Gate = duplicate.NewGate(app.Store, app.Store, logger)

	if cfg.Knowledge.Enabled {
		app.Knowledge = knowledge.NewService(
			knowledge.WithTimeout(cfg.Knowledge.Timeout),
			knowledge.WithServiceLogger(logger))
		for _, pc := range cfg.Knowledge.Providers {
			limiterCfg := knowledge.DefaultLimiterConfig()
			if pc.RequestsPerSecond > 0 {
				limiterCfg.RequestsPerSecond = pc.RequestsPerSecond
			}
			if pc.Burst > 0 {
				limiterCfg.Burst = pc.Burst
			}
			app.Knowledge.AddProvider(
				knowledge.NewWebProvider(pc.Name, pc.URLTemplate),
				knowledge.NewLimiter(limiterCfg),
				nil)
		}
	}

	opts := []generate.Option{
		generate.WithFeedbackStore(app.Store),
		generate.WithMonitoringSink(app.monitoringSink()),
		generate.WithOrchestratorLogger(logger),
	}
	if cfg.Model.Temperature > 0 {
		opts = append(opts, generate.WithTemperature(cfg.Model.Temperature))
	}
	if cfg.Model.EnhancementEnabled {
		opts = append(opts, generate.WithEnhancer(generate.NewLLMEnhancer(app.Client)))
	}
	if app.Knowledge != nil {
		opts = append(opts, generate.WithSnippetSource(app.Knowledge))
	}
	app.Orchestrator = generate.NewOrchestrator(app.Client, app.Engine, app.Store, opts...)

	return app, nil
}

// connectStorage picks NATS-backed storage when a URL is configured, the
// in-process store otherwise.
func (a *App) connectStorage(ctx context.Context, cfg *config.Config) error {
	if cfg.NATS.URL == "" {
		a.Logger.Info("No NATS URL configured, using in-memory storage")
		a.Store = storage.NewMemoryStore()
		return nil
	}

	nc, err := nats.Connect(cfg.NATS.URL,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1))
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrConnection, err)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return fmt.Errorf("create JetStream context: %w", err)
	}
	store, err := storage.NewKVStore(ctx, js)
	if err != nil {
		nc.Close()
		return fmt.Errorf("create KV store: %w", err)
	}

	a.nc = nc
	a.Store = store
	a.Logger.Info("Connected to NATS", "url", cfg.NATS.URL)
	return nil
}

// uniqueness returns the store as the uniqueness checker. Both store
// implementations expose CountActive.
func (a *App) uniqueness() validation.UniquenessChecker {
	if checker, ok := a.Store.(validation.UniquenessChecker); ok {
		return checker
	}
	return nil
}

// monitoringSink builds the completion sink: prometheus always, NATS when
// connected.
func (a *App) monitoringSink() generate.MonitoringSink {
	sinks := generate.MultiSink{generate.NewPrometheusSink(a.Metrics)}
	if a.nc != nil {
		sinks = append(sinks, generate.NewNATSSink(a.nc))
	}
	return sinks
}

// Close releases external connections.
func (a *App) Close() {
	if a.nc != nil {
		a.nc.Close()
	}
}
