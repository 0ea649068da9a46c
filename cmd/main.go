package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/somaedu/adapt/internal/adapters/catalog"
	"github.com/somaedu/adapt/internal/adapters/history"
	"github.com/somaedu/adapt/internal/adapters/http/api"
	"github.com/somaedu/adapt/internal/adapters/http/swagger"
	"github.com/somaedu/adapt/internal/adapters/oracle"
	"github.com/somaedu/adapt/internal/adapters/repository"
	app "github.com/somaedu/adapt/internal/app"
	"github.com/somaedu/adapt/internal/config"
	"github.com/somaedu/adapt/pkg/logger"
	"github.com/somaedu/adapt/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env).
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input).
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, cleanup, err := buildAdapters(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build adapters", logger.Error(err))
		return
	}
	defer cleanup()

	opts = append(opts,
		app.WithLogger(log),
		app.WithDefaultMaxItems(cfg.DefaultMaxItems),
		app.WithMaxRankK(cfg.MaxRankK),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
	)

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

func buildTeardown(closers []func()) func() {
	return func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// buildAdapters constructs the configured catalog, oracle, session store
// and answer recorder. The returned cleanup closes whatever was opened.
func buildAdapters(ctx context.Context, cfg *config.Config, log logger.Logger) ([]app.Option, func(), error) {
	var (
		opts    []app.Option
		closers []func()
	)

	switch cfg.CatalogBackend {
	case config.CatalogPostgres:
		bank, err := catalog.NewPostgresCatalog(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, buildTeardown(closers), err
		}
		closers = append(closers, bank.Close)
		opts = append(opts, app.WithCatalog(bank))

		recorder, err := history.NewPostgresRecorder(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, buildTeardown(closers), err
		}
		closers = append(closers, recorder.Close)
		opts = append(opts, app.WithRecorder(recorder))
		log.Info(ctx, "using postgres catalog and answer history")
	default:
		// The in-memory catalog starts empty; it is meant for tests and
		// for deployments that seed it through a sidecar build.
		log.Info(ctx, "using in-memory catalog and answer history")
	}

	switch cfg.SessionBackend {
	case config.SessionsRedis:
		store, err := repository.NewRedisStore(ctx, cfg.RedisAddr,
			repository.WithRedisTTL(time.Duration(cfg.SessionTTLMinutes)*time.Minute),
		)
		if err != nil {
			return nil, buildTeardown(closers), err
		}
		closers = append(closers, func() { _ = store.Close() })
		opts = append(opts, app.WithSessionStore(store))
		log.Info(ctx, "using redis session store", logger.String("addr", cfg.RedisAddr))
	default:
		store := repository.NewMemoryStore(
			repository.WithTTL(time.Duration(cfg.SessionTTLMinutes) * time.Minute),
		)
		closers = append(closers, store.Close)
		opts = append(opts, app.WithSessionStore(store))
		log.Info(ctx, "using in-memory session store")
	}

	opts = append(opts, app.WithOracle(oracle.NewRegistry(cfg.ModelArtifactPath, log)))

	return opts, buildTeardown(closers), nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
