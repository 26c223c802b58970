// Package main is the entry point for the maru room search API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/capstone-maru/maru/internal/api"
	"github.com/capstone-maru/maru/internal/auth"
	"github.com/capstone-maru/maru/internal/config"
	"github.com/capstone-maru/maru/internal/health"
	"github.com/capstone-maru/maru/internal/middleware"
	"github.com/capstone-maru/maru/internal/popularity"
	"github.com/capstone-maru/maru/internal/postgres"
	"github.com/capstone-maru/maru/internal/ranking"
	"github.com/capstone-maru/maru/internal/search"
	"github.com/capstone-maru/maru/internal/tracing"
)

const (
	serviceName     = "maru-api"
	shutdownTimeout = 10 * time.Second
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment variables take precedence)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("Maru Room Search API")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	if len(errs) > 0 {
		for _, err := range errs {
			slog.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	logger := middleware.NewLogger(cfg.Env)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.LogSummary())

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := tracing.NewProvider(ctx, cfg.Tracing(serviceName, version))
	if err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	} else {
		logger.Warn("REDIS_URL not set, popularity ranking sees no views")
	}

	weights, err := ranking.LoadCalibration(cfg.RankingCalibrationPath)
	if err != nil {
		// LoadCalibration already fell back to the defaults.
		logger.Warn("using default ranking weights", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler, err := newHandler(deps{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		redis:   rdb,
		weights: weights,
		reg:     reg,
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "version", version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// deps are the process-wide resources the handler is built from.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *sql.DB
	redis   *redis.Client // nil when popularity is not configured
	weights *ranking.Weights
	reg     *prometheus.Registry
}

// newHandler wires the stores, the engine and the middleware chain:
// RequestID -> Tracing -> Logging -> HTTPMetrics -> router.
func newHandler(d deps) (http.Handler, error) {
	var views popularity.Reader = popularity.NewInMemoryCounter()
	checkers := map[string]health.Checker{"database": health.NewDBChecker(d.db)}
	if d.redis != nil {
		views = popularity.NewRedisReader(d.redis)
		checkers["redis"] = health.NewRedisChecker(d.redis)
	}

	searchMetrics := search.NewMetrics()
	if err := searchMetrics.Register(d.reg); err != nil {
		return nil, fmt.Errorf("failed to register search metrics: %w", err)
	}
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(d.reg); err != nil {
		return nil, fmt.Errorf("failed to register http metrics: %w", err)
	}

	engine := search.NewEngine(
		search.Config{
			Weights:         d.weights,
			DefaultPageSize: d.cfg.SearchDefaultPageSize,
			MaxPageSize:     d.cfg.SearchMaxPageSize,
			Metrics:         searchMetrics,
			Logger:          d.logger,
		},
		postgres.NewListingStore(d.db),
		views,
		postgres.NewFollowStore(d.db),
		postgres.NewMemberStore(d.db),
	)

	router := api.NewRouter(api.RouterConfig{
		Search:   api.NewSearchHandlers(engine),
		Health:   api.NewHealthHandlers(checkers),
		Metrics:  promhttp.HandlerFor(d.reg, promhttp.HandlerOpts{}),
		Verifier: auth.NewTokenService(d.cfg.JWTSecret),
	})

	var h http.Handler = router
	h = middleware.HTTPMetrics(httpMetrics)(h)
	h = middleware.Logging(d.logger)(h)
	h = middleware.Tracing(serviceName)(h)
	h = middleware.RequestID(h)
	return h, nil
}
