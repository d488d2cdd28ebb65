// cmd/orchestrator/main.go
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

	"go.uber.org/zap"

	"apply-orchestrator/internal/api"
	"apply-orchestrator/internal/common/automation"
	"apply-orchestrator/internal/common/config"
	"apply-orchestrator/internal/common/database"
	apphttp "apply-orchestrator/internal/common/http"
	"apply-orchestrator/internal/common/logger"
	"apply-orchestrator/internal/common/observability"
	"apply-orchestrator/internal/common/resultlog"
	applybulk "apply-orchestrator/internal/dispatch/apply-bulk"
	applysingle "apply-orchestrator/internal/dispatch/apply-single"
	tailorbullets "apply-orchestrator/internal/dispatch/tailor-bullets"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type pingCloser interface {
	Ping(ctx context.Context) error
	Close() error
}

// connectWithRetry opens a fresh client per attempt. A client whose attempt
// failed is closed before the next one is opened.
func connectWithRetry[C pingCloser](ctx context.Context, open func() (C, error), maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) (C, error) {
	var client C
	err := retryWithBackoff(func() error {
		c, err := open()
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	}, maxRetries, initialDelay, log, operationName)
	if err != nil {
		var zero C
		return zero, err
	}
	return client, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	zapLog.Info("Starting apply orchestrator...",
		zap.String("workerURL", cfg.Worker.BaseURL),
		zap.String("genaiProvider", cfg.GenAI.Provider),
		zap.String("resultLog", cfg.ResultLog.Backend),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx := context.Background()

	store, closeStore, err := buildStore(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("result log init failed", zap.Error(err))
	}
	defer closeStore()
	recorder := resultlog.NewRecorder(store, log)

	generator, err := buildGenerator(ctx, cfg)
	if err != nil {
		zapLog.Fatal("genai backend init failed", zap.Error(err))
	}

	tailorCfg := &tailorbullets.Config{
		Temperature: cfg.Tailoring.Temperature,
		MaxBullets:  cfg.Tailoring.MaxBullets,
		Timeout:     config.GetDuration(cfg.GenAI.Timeout),
	}
	tailor := tailorbullets.NewHandler(tailorCfg, generator, log)

	worker := automation.NewClient(
		cfg.Worker.BaseURL,
		config.GetDuration(cfg.Worker.Timeout),
		cfg.Worker.RatePerSec,
		cfg.Worker.RateBurst,
	)

	single := applysingle.NewHandler(applysingle.LoadConfig(), tailor, worker, recorder, obs, log)

	bulkCfg := applybulk.LoadConfig()
	bulkCfg.DefaultLimit = cfg.Bulk.DefaultLimit
	bulkCfg.MaxLimit = cfg.Bulk.MaxLimit
	bulkCfg.Concurrency = cfg.Bulk.Concurrency
	bulk := applybulk.NewHandler(bulkCfg, single, log)

	handlers := api.NewHandlers(single, bulk, recorder, cfg.Server.RecentLogDefault, log)
	router := api.NewRouter(api.RouterConfig{CORSOrigins: cfg.Server.CORSOrigins}, handlers, log)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("Apply orchestrator stopped gracefully")
}

func buildStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (resultlog.Store, func(), error) {
	noop := func() {}

	switch cfg.ResultLog.Backend {
	case "memory":
		return resultlog.NewMemoryStore(), noop, nil

	case "redis":
		rc, err := connectWithRetry(ctx, func() (*database.RedisClient, error) {
			return database.NewRedis(cfg.Database.Redis), nil
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, noop, err
		}
		zapLog.Info("Redis connected successfully")
		return resultlog.NewRedisStore(rc.Client, cfg.ResultLog.RedisKey), func() { _ = rc.Close() }, nil

	case "postgres":
		pg, err := connectWithRetry(ctx, func() (*database.PostgresClient, error) {
			return database.NewPostgres(cfg.Database.Postgres)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, noop, err
		}
		zapLog.Info("PostgreSQL connected successfully")

		store := resultlog.NewPostgresStore(pg.DB, cfg.ResultLog.PostgresTable)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, noop, fmt.Errorf("ensure result log schema: %w", err)
		}
		return store, func() { _ = pg.Close() }, nil

	default:
		return resultlog.NewFileStore(cfg.ResultLog.Path), noop, nil
	}
}

func buildGenerator(ctx context.Context, cfg *config.Config) (tailorbullets.Generator, error) {
	switch cfg.GenAI.Provider {
	case "openai":
		return tailorbullets.NewOpenAIGenerator(cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.BaseURL, cfg.GenAI.MaxTokens)
	case "googleai":
		return tailorbullets.NewGoogleAIGenerator(ctx, cfg.GenAI.APIKey, cfg.GenAI.Model, cfg.GenAI.MaxTokens)
	default:
		client := apphttp.NewClient(config.GetDuration(cfg.GenAI.Timeout))
		return tailorbullets.NewHTTPGenerator(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.MaxTokens, client), nil
	}
}
