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

	"github.com/starford/dealroom/internal/api"
	"github.com/starford/dealroom/internal/clientservice"
	"github.com/starford/dealroom/internal/clientstore"
	"github.com/starford/dealroom/internal/collection"
	"github.com/starford/dealroom/internal/ids"
	"github.com/starford/dealroom/internal/index"
	"github.com/starford/dealroom/internal/mcpserver"
	"github.com/starford/dealroom/internal/metrics"
	"github.com/starford/dealroom/internal/presenter"
	"github.com/starford/dealroom/internal/seed"
	"github.com/starford/dealroom/internal/sse"
	"github.com/starford/dealroom/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	// Initialize structured JSON logger.
	app.logger = slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(app.logger)
	return app, nil
}

// core is the part of the application shared by the HTTP and MCP entry points.
type core struct {
	store   *clientstore.Store
	db      *index.DB
	docs    storage.Provider
	metrics *metrics.Metrics
}

func (a *application) buildCore(ctx context.Context) (*core, error) {
	cfg, logger := a.config, a.logger

	initial, err := seed.Load(cfg.Seed.Path)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}
	store := clientstore.New(initial)

	// Initialize SQLite index and keep it in step with the store.
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	store.Subscribe(index.Follow(db, store, logger))
	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	docs, err := a.openDocuments(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init documents: %w", err)
	}

	return &core{store: store, db: db, docs: docs, metrics: metrics.New()}, nil
}

func (a *application) openDocuments(ctx context.Context) (storage.Provider, error) {
	c := a.config.Documents
	if c.Driver == DocumentsDriverS3 {
		return storage.NewS3(ctx, storage.S3Config{
			Bucket:    c.S3.Bucket,
			Region:    c.S3.Region,
			Endpoint:  c.S3.Endpoint,
			PathStyle: c.S3.PathStyle,
			Prefix:    c.S3.Prefix,
		})
	}
	if err := os.MkdirAll(c.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return storage.NewFS(c.Path)
}

func (c *core) service(logger *slog.Logger, opts ...clientservice.Option) *clientservice.Service {
	builder := collection.NewBuilder(ids.UUID{})
	opts = append([]clientservice.Option{clientservice.WithMetrics(c.metrics), clientservice.WithLogger(logger)}, opts...)
	return clientservice.New(c.store, builder, c.db, c.docs, opts...)
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("seed_path", cfg.Seed.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("documents_driver", cfg.Documents.Driver),
		slog.Bool("reset_on_switch", cfg.Presenter.ResetOnSwitch),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := app.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.db.Close()

	// SSE broker.
	broker := sse.NewBroker(cfg.Events.CountsThrottle, sse.WithSubscriberHook(c.metrics.SetSubscribers))
	defer broker.Close()

	svc := c.service(logger, clientservice.WithPublisher(broker))
	sessions := presenter.NewRegistry(svc,
		presenter.WithResetOnSwitch(cfg.Presenter.ResetOnSwitch),
		presenter.WithIdleTimeout(cfg.Presenter.SessionIdleTimeout),
		presenter.WithMaxSessions(cfg.Presenter.MaxSessions),
		presenter.WithMetrics(c.metrics),
		presenter.WithLogger(logger),
	)
	apiRouter := api.NewRouter(svc, sessions, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if err := c.db.Ping(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"index unavailable"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", c.metrics.Handler())

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Cancelled on shutdown so the background loops below stop with the server.
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	// Drop idle dashboard sessions.
	if cfg.Presenter.SessionIdleTimeout > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(cfg.Presenter.SessionIdleTimeout / 2)
			defer ticker.Stop()
			for {
				select {
				case <-gCtx.Done():
					return nil
				case <-ticker.C:
					if n := sessions.Prune(); n > 0 {
						logger.Debug("expired sessions removed", slog.Int("count", n))
					}
				}
			}
		})
	}

	// Reload the store when the seed file changes.
	if cfg.Seed.Watch && cfg.Seed.Path != "" {
		g.Go(func() error {
			err := seed.Watch(gCtx, cfg.Seed.Path, logger, func(s clientstore.Seed) {
				svc.Reset(gCtx, s)
				c.metrics.SeedReloaded(nil)
			})
			if err != nil {
				c.metrics.SeedReloaded(err)
				logger.Error("seed watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the dealroom MCP tools on stdin/stdout. Logs go to stderr.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	c, err := app.buildCore(ctx)
	if err != nil {
		return err
	}
	defer c.db.Close()

	srv := mcpserver.New(c.service(app.logger))
	app.logger.Info("Starting MCP server on stdio")
	return srv.ServeStdio()
}
