package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/learning-intel-api/api/swagger"
	"github.com/noah-isme/learning-intel-api/internal/handler"
	"github.com/noah-isme/learning-intel-api/internal/repository"
	"github.com/noah-isme/learning-intel-api/internal/service"
	"github.com/noah-isme/learning-intel-api/pkg/cache"
	"github.com/noah-isme/learning-intel-api/pkg/classifier"
	"github.com/noah-isme/learning-intel-api/pkg/config"
	"github.com/noah-isme/learning-intel-api/pkg/database"
	"github.com/noah-isme/learning-intel-api/pkg/jobs"
	"github.com/noah-isme/learning-intel-api/pkg/logger"
)

// @title Learning Intelligence API
// @version 1.0.0
// @description Course completion predictions, dropout risk tiers and learning insights
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, "api")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model, err := classifier.NewDefault()
	if err != nil {
		logr.Fatal("failed to fit completion model", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	predictor := service.NewPredictor(model)

	history, checks, shutdownHistory := setupHistory(ctx, cfg, logr, predictor, metrics)
	defer shutdownHistory()

	predictions := service.NewPredictionService(service.NewDataProcessor(), predictor, history, metrics, validator.New(), logr)

	r := newRouter(cfg, logr, routerDeps{
		predictions: predictions,
		history:     history,
		metrics:     metrics,
		checks:      checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "run_history", history.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}

// setupHistory wires Postgres, Redis and the write queue when run history is
// enabled. Unreachable dependencies disable history instead of aborting start.
func setupHistory(ctx context.Context, cfg *config.Config, logr *zap.Logger, predictor *service.Predictor, metrics *service.MetricsService) (*service.HistoryService, map[string]handler.ReadinessCheck, func()) {
	disabled := service.NewHistoryService(nil, nil, nil, predictor, logr)
	if !cfg.History.Enabled {
		return disabled, nil, func() {}
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Error("run history disabled: postgres unavailable", zap.Error(err))
		return disabled, nil, func() {}
	}
	store := repository.NewPredictionRunRepository(db)
	if err := store.Migrate(ctx); err != nil {
		logr.Error("run history disabled: migration failed", zap.Error(err))
		_ = db.Close()
		return disabled, nil, func() {}
	}

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	closers := []func(){func() { _ = db.Close() }}

	var redisClient *redis.Client
	if cfg.History.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("insights cache disabled: redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
			closers = append(closers, func() { _ = redisClient.Close() })
		}
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.History.CacheTTL, logr, redisClient != nil)

	var worker *service.HistoryWorker
	queue := jobs.NewQueue("prediction-history", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:      cfg.History.WorkerConcurrency,
		MaxRetries:   cfg.History.WorkerRetries,
		RetryDelay:   time.Second,
		DrainTimeout: 5 * time.Second,
		Logger:       logr,
	})
	history := service.NewHistoryService(store, cacheSvc, queue, predictor, logr)
	worker = service.NewHistoryWorker(history, metrics, logr)
	queue.Start(context.Background())

	return history, checks, func() {
		queue.Stop()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}
