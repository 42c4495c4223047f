package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bernyforce/llm-council/internal/api"
	"github.com/bernyforce/llm-council/internal/buildconfig"
	"github.com/bernyforce/llm-council/internal/config"
	"github.com/bernyforce/llm-council/internal/domain"
	"github.com/bernyforce/llm-council/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(config.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	settings, err := config.Council()
	if err != nil {
		logger.Fatal("invalid council configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, closeStore, err := openSessionStore(ctx, logger)
	if err != nil {
		logger.Fatal("failed to open session store", zap.String("store", config.SessionStore()), zap.Error(err))
	}
	defer closeStore()

	app, err := api.NewApp(ctx, sessions, settings, logger)
	if err != nil {
		closeStore()
		logger.Fatal("failed to build app", zap.Error(err))
	}

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()),
			zap.String("commit", buildconfig.Commit()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// In-flight deliberations can take several model round trips.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*settings.Timeout+10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// openSessionStore builds the backend selected by SESSION_STORE and returns
// a func that releases its connections.
func openSessionStore(ctx context.Context, logger *zap.Logger) (domain.SessionStore, func(), error) {
	switch config.SessionStore() {
	case "file":
		st, err := store.NewFileSessionStore(config.DataDir(), logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using file session store", zap.String("dir", config.DataDir()))
		return st, func() {}, nil

	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		if err := store.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("connected to database")
		return store.NewSessionStore(pool), pool.Close, nil

	case "redis":
		opts, err := redis.ParseURL(config.RedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		st := store.NewRedisSessionStore(client, "")

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := st.Ping(pingCtx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to redis")
		return st, func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown SESSION_STORE %q", config.SessionStore())
	}
}
