// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/coursepress/internal/api"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/ingest"
	"github.com/starford/coursepress/internal/mcpserver"
	"github.com/starford/coursepress/internal/postservice"
	"github.com/starford/coursepress/internal/publish"
	"github.com/starford/coursepress/internal/resolver"
	"github.com/starford/coursepress/internal/sse"
	"github.com/starford/coursepress/internal/store"
	"github.com/starford/coursepress/internal/watch"
)

const serviceName = "coursepress"

var errConfigRequired = errors.New("config is required")

// components is the wired object graph shared by every command.
type components struct {
	store     store.Store
	cache     *resolver.Cache
	broker    *sse.Broker
	service   *postservice.Service
	logger    *slog.Logger
	startedAt time.Time
}

func (c *components) Close() {
	c.broker.Close()
	if err := c.store.Close(); err != nil {
		c.logger.Warn("store close failed", slog.String("error", err.Error()))
	}
}

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// build opens the store and wires ingestion, export, resolution and
// notification around it.
func build(ctx context.Context, cfg *Config, logger *slog.Logger) (*components, error) {
	c := clock.System{}

	logger.Info("Configuration loaded",
		slog.String("environment", cfg.App.Environment),
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_path", cfg.Content.Path),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("export_path", cfg.Export.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Content.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}

	st, err := store.Open(store.Options{Driver: cfg.Store.Driver, Path: cfg.Store.Path})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	var mirror export.Mirror
	if cfg.Export.S3.Enabled() {
		pub, err := publish.NewS3(ctx, cfg.Export.S3.Publisher(), logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init s3 mirror: %w", err)
		}
		mirror = pub
		logger.Info("S3 mirror enabled", slog.String("bucket", cfg.Export.S3.Bucket))
	}

	runner := ingest.NewRunner(st, c, ingest.Options{
		Extension:      cfg.Content.Extension,
		RequiredFields: cfg.Content.RequiredFields,
		Timeout:        cfg.Store.Timeout,
	}, logger)
	exporter := export.New(c, cfg.Export.BaseURL, mirror, logger)

	cache := resolver.NewCache(c, cfg.Resolver.CacheTTL)
	res := resolver.New(cache, c, logger,
		resolver.NewStaticTier(cfg.Export.Path, cache),
		resolver.NewStoreTier(st, c),
		resolver.NewRawTier(runner, cfg.Content.Path, c),
	)

	broker := sse.NewBroker(2 * time.Second)
	svc := postservice.NewService(postservice.Config{
		ContentDir: cfg.Content.Path,
		ExportDir:  cfg.Export.Path,
	}, runner, st, exporter, res, broker, c, logger)

	return &components{
		store:     st,
		cache:     cache,
		broker:    broker,
		service:   svc,
		logger:    logger,
		startedAt: c.Now(),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(cfg)

	comp, err := build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	// Initial sync so the static tier is warm before the first request.
	if _, err := comp.service.Sync(ctx, postservice.TriggerStartup); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	handler := api.NewHandler(comp.service, api.Info{
		Service:     serviceName,
		Version:     app.version,
		Environment: cfg.App.Environment,
		StartedAt:   comp.startedAt,
	}, clock.System{})
	apiRouter := api.NewRouter(handler, api.RouterOptions{
		AuthEnabled: cfg.Auth.AuthEnabled(),
		Token:       cfg.Auth.Token,
		Events:      comp.broker,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Content.Watch {
		g.Go(func() error {
			return watch.Watch(gCtx, cfg.Content.Path, watch.Options{
				Extension: cfg.Content.Extension,
				Debounce:  cfg.Content.Debounce,
			}, func(ctx context.Context) error {
				_, err := comp.service.Sync(ctx, postservice.TriggerWatch)
				return err
			}, logger)
		})
	}

	// Periodic cache expiry.
	g.Go(func() error {
		return comp.cache.Run(gCtx, cfg.Resolver.CacheTTL)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		comp.broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the server has been asked to stop, so
// the watcher and the cache ticker exit too.
var errShutdown = errors.New("shutdown")

// RunSync performs one ingestion and export, then exits. Per-file problems
// are logged; a fatal run failure is returned.
func RunSync(ctx context.Context, opts ...Option) (*postservice.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(app.config)
	comp, err := build(ctx, app.config, logger)
	if err != nil {
		return nil, err
	}
	defer comp.Close()

	rep, err := comp.service.Sync(ctx, postservice.TriggerCLI)
	if err != nil {
		return nil, err
	}
	for _, fe := range rep.Errors {
		logger.Warn("file skipped", slog.String("path", fe.Path), slog.String("error", fe.Message))
	}
	for _, w := range rep.Warnings {
		logger.Warn("file warning", slog.String("path", w.Path), slog.String("message", w.Message))
	}
	return rep, nil
}

// RunExport rewrites the static artifacts from the committed store
// contents without re-reading the content tree.
func RunExport(ctx context.Context, opts ...Option) (*export.Manifest, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	comp, err := build(ctx, app.config, newLogger(app.config))
	if err != nil {
		return nil, err
	}
	defer comp.Close()
	return comp.service.ExportFromStore(ctx)
}

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr so they
// never mix with the protocol stream.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	comp, err := build(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer comp.Close()

	return mcpserver.New(comp.service, app.version).ServeStdio()
}
