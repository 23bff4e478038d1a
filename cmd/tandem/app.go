package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShayCichocki/tandem/internal/agent"
	"github.com/ShayCichocki/tandem/internal/api"
	"github.com/ShayCichocki/tandem/internal/config"
	"github.com/ShayCichocki/tandem/internal/events"
	"github.com/ShayCichocki/tandem/internal/logging"
	"github.com/ShayCichocki/tandem/internal/orchestrator"
	"github.com/ShayCichocki/tandem/internal/progress"
	"github.com/ShayCichocki/tandem/internal/state"
	"github.com/ShayCichocki/tandem/internal/toolregistry"
	"github.com/ShayCichocki/tandem/internal/workflow"
)

// appOptions selects the optional parts of an app.
type appOptions struct {
	archive  bool
	metrics  bool
	notifier progress.Notifier
}

// app is the composition root shared by the commands.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	registry    *toolregistry.Registry
	tools       *workflow.RegistryToolUser
	client      *api.Client
	bus         *events.Bus
	broadcaster *progress.Broadcaster
	metrics     *orchestrator.Metrics
	archive     state.Store
	orch        *orchestrator.Orchestrator

	closers []func() error
}

// newApp wires the registry, tools, workers and orchestrator from cfg.
// Initialize is left to the caller.
func newApp(cfg *config.Config, logger *slog.Logger, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.registry = toolregistry.New(toolregistry.WithLogger(logger))
	if err := toolregistry.RegisterBuiltins(a.registry, toolregistry.BuiltinConfig{WorkDir: cfg.Workflow.WorkDir}); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	a.tools = workflow.NewRegistryToolUser(a.registry, workflow.ToolUserConfig{
		Timeout:   cfg.Workflow.ToolTimeout,
		CacheSize: cfg.Workflow.CacheSize,
		CacheTTL:  cfg.Workflow.CacheTTL,
	}, logger)

	if config.GetAPIKeySource(cfg) != config.KeySourceNone {
		client, err := api.NewClient(api.ClientConfigFrom(cfg.Anthropic))
		if err != nil {
			logger.Warn("anthropic client unavailable, using workflow workers only", "error", err)
		} else {
			a.client = client
		}
	}

	a.bus = events.NewBus(events.WithLogger(logger))
	a.broadcaster = progress.NewBroadcaster(progress.WithNotifier(opts.notifier), progress.WithLogger(logger))
	detach := progress.Bridge(a.bus, a.broadcaster)
	a.closers = append(a.closers, func() error {
		detach()
		return nil
	})

	if opts.metrics {
		a.metrics = orchestrator.DefaultMetrics()
	}

	if opts.archive && cfg.State.Archive {
		path := cfg.State.Path
		if path == "" {
			path = state.DefaultPath()
		}
		db, err := state.OpenArchive(path)
		if err != nil {
			logger.Warn("task archive unavailable", "path", path, "error", err)
		} else {
			a.archive = db
			a.closers = append(a.closers, db.Close)
		}
	}

	specialists, generalist := agent.DefaultProfiles(), agent.DefaultGeneralist()
	if cfg.Orchestrator.WorkersFile != "" {
		var err error
		specialists, generalist, err = agent.LoadProfiles(cfg.Orchestrator.WorkersFile)
		if err != nil {
			return nil, err
		}
	}

	factoryCfg := agent.FactoryConfig{
		Client:   a.client,
		Registry: a.registry,
		ToolUser: a.tools,
		Bus:      a.bus,
		Logger:   logger,
	}
	if a.metrics != nil {
		factoryCfg.StepRecorder = a.metrics
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithProfiles(specialists, generalist),
		orchestrator.WithBroadcaster(a.broadcaster),
		orchestrator.WithHistorySize(cfg.Orchestrator.HistorySize),
		orchestrator.WithParallelLimit(cfg.Orchestrator.ParallelLimit),
		orchestrator.WithMaxDuration(cfg.Orchestrator.MaxDuration),
		orchestrator.WithMetrics(a.metrics),
		orchestrator.WithLogger(logger),
	}
	if a.archive != nil {
		orchOpts = append(orchOpts, orchestrator.WithArchive(a.archive))
	}
	a.orch = orchestrator.New(agent.NewFactory(factoryCfg), orchOpts...)
	return a, nil
}

// applyConfig applies the settings that can change while running.
func (a *app) applyConfig(next *config.Config, level *slog.LevelVar) {
	if level != nil && next.Logging.Level != "" {
		level.Set(logging.ParseLevel(next.Logging.Level))
	}
	if next.Workflow.ToolTimeout > 0 {
		a.tools.SetTimeout(next.Workflow.ToolTimeout)
	}
	a.logger.Info("settings reloaded",
		"log_level", next.Logging.Level, "tool_timeout", a.tools.Timeout())
}

// Close releases everything newApp opened.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// serve runs an HTTP server in the background until ctx is done.
func serve(ctx context.Context, logger *slog.Logger, name, addr string, handler http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(name+" listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(name+" server failed", "addr", addr, "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// metricsHandler exposes the default Prometheus registry.
func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
