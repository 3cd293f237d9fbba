package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/logsift-systems/logsift/internal/aggregation"
	"github.com/logsift-systems/logsift/internal/cache"
	"github.com/logsift-systems/logsift/internal/client"
	"github.com/logsift-systems/logsift/internal/events"
	"github.com/logsift-systems/logsift/internal/ingest"
	"github.com/logsift-systems/logsift/internal/logging"
	"github.com/logsift-systems/logsift/internal/postfilter"
	"github.com/logsift-systems/logsift/internal/recordformat"
	"github.com/logsift-systems/logsift/internal/repository"
	"github.com/logsift-systems/logsift/internal/search"
	"github.com/logsift-systems/logsift/internal/service"
	"github.com/logsift-systems/logsift/internal/tasks"
	"github.com/logsift-systems/logsift/internal/translator"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the logsift service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("logsift"))
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database_url is required")
	}

	// Run database migrations
	logger.Info("running database migrations")
	m, err := migrate.New("file://migrations", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo, err := repository.NewPostgresRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL, cfg.Redis.TTL())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisCache.Close()
	statsCache := cache.NewStatisticsCache(redisCache, repo, logger)

	store, err := client.NewStore(client.Config{
		URL:      cfg.OpenSearch.URL,
		Username: cfg.OpenSearch.Username,
		Password: cfg.OpenSearch.Password,
		Insecure: cfg.OpenSearch.Insecure,
		Index:    cfg.OpenSearch.Index,
	})
	if err != nil {
		return fmt.Errorf("connect to opensearch: %w", err)
	}

	formats := recordformat.NewRegistry()
	if cfg.Indexing.FormatsFile != "" {
		formats, err = recordformat.Load(cfg.Indexing.FormatsFile)
		if err != nil {
			return fmt.Errorf("load record formats: %w", err)
		}
	}

	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = events.Connect(cfg.NATS.URL, "logsift")
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}
		logger.Info("event publishing enabled", "url", cfg.NATS.URL)
	} else {
		logger.Info("event publishing disabled")
	}
	publisher := events.NewPublisher(natsConn, logger)
	defer publisher.Close()

	executor := tasks.NewExecutor(cfg.Indexing.Workers, cfg.Indexing.QueueCapacity, logger)
	defer executor.Close()

	trans := translator.New()
	filters := postfilter.NewRegistry()
	searchEngine := search.NewEngine(store, trans, filters)

	analyzer, err := aggregation.NewEngine(aggregation.NewRegistry())
	if err != nil {
		return fmt.Errorf("build aggregation engine: %w", err)
	}

	pipeline := ingest.NewPipeline(
		executor,
		ingest.NewZipUnzipper(),
		ingest.NewLineParser(cfg.Indexing.BatchSize),
		formats,
		store,
		searchEngine,
		analyzer,
		repo,
		publisher,
		logger,
		ingest.PipelineConfig{WorkDir: cfg.Indexing.WorkDir},
	)

	svc := service.NewLogsService(
		pipeline, searchEngine, analyzer, statsCache, repo, store, trans, executor, logger,
	)

	sweeper := service.NewRetentionSweeper(svc, repo, time.Hour, logger)
	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("start retention sweeper: %w", err)
	}
	defer sweeper.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("logsift listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", logging.Error(err))
	}

	logger.Info("logsift stopped")
	return nil
}
