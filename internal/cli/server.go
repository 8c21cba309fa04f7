package cli

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

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sales-competency-service/internal/app"
	"sales-competency-service/internal/competency"
	"sales-competency-service/internal/config"
	"sales-competency-service/internal/infra/memory"
	"sales-competency-service/internal/infra/postgres"
	infraredis "sales-competency-service/internal/infra/redis"
	"sales-competency-service/internal/recommendation"
	"sales-competency-service/internal/scoring"
	transport "sales-competency-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the assessment server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	engine, resolver, err := buildCore(cfg, logger)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store memory.AttemptStore = memory.NewStaticAttemptStore()
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg.Postgres.URL); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		store = postgres.NewAttemptStore(pool)
	} else {
		logger.Warn("postgres url not configured, attempts are kept in memory")
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Attempts.TTL, 10*time.Minute)

	var attempts app.AttemptRepository
	var sessions app.SessionRepository
	if redisClient != nil {
		attempts = infraredis.NewAttemptRepository(redisClient, store, attemptTTL)
		sessions = infraredis.NewSessionStore(redisClient, redisTTL)
	} else {
		attempts = memory.NewAttemptRepository(store, attemptTTL)
		sessions = memory.NewSessionStore()
	}

	service := app.NewAssessmentService(sessions, attempts, engine, resolver, app.Options{
		TimeLimit:          config.TTLDuration(cfg.Attempts.TimeLimit, 0),
		MaxRecommendations: cfg.Assessment.MaxRecommendations,
		Logger:             logger,
	})

	mux := http.NewServeMux()
	transport.NewAPIHandler(service).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(service).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting assessment service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildCore loads the competency catalog and recommendation text named in cfg,
// falling back to the embedded defaults.
func buildCore(cfg config.Config, logger *slog.Logger) (*scoring.Engine, *recommendation.Resolver, error) {
	catalog, err := competency.Load(cfg.Assessment.Catalog)
	if err != nil {
		return nil, nil, err
	}
	table, err := recommendation.LoadTable(cfg.Assessment.Recommendations)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := recommendation.NewResolver(catalog.Normalizer(), table)
	if err != nil {
		return nil, nil, err
	}
	engine := scoring.NewEngine(catalog.Normalizer(), catalog.Table(), catalog.Order(), logger)
	return engine, resolver, nil
}
