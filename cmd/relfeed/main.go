package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/querystack/relfeed/internal/config"
	"github.com/querystack/relfeed/internal/engine"
	enginememory "github.com/querystack/relfeed/internal/engine/memory"
	engineredis "github.com/querystack/relfeed/internal/engine/redis"
	"github.com/querystack/relfeed/internal/extract"
	logpkg "github.com/querystack/relfeed/internal/logger"
	"github.com/querystack/relfeed/internal/metrics"
	"github.com/querystack/relfeed/internal/query"
	chiTransport "github.com/querystack/relfeed/internal/transport/chi"
	feedbackuc "github.com/querystack/relfeed/internal/usecase/feedback"
	"github.com/querystack/relfeed/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting relfeed API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	eng, cleanup, err := buildEngine(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create search engine", zap.Error(err))
	}
	defer cleanup()

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	builder := extract.NewBuilder(eng, eng.UniqueKeyField(), extract.Config{
		Fields:                cfg.Feedback.Fields,
		MaxQueryTermsPerField: cfg.Feedback.MaxQueryTermsPerField,
		MinTermFreq:           cfg.Feedback.MinTermFreq,
		MinDocFreq:            cfg.Feedback.MinDocFreq,
		MaxDocFreqPct:         cfg.Feedback.MaxDocFreqPct,
		MinWordLen:            cfg.Feedback.MinWordLen,
		MaxWordLen:            cfg.Feedback.MaxWordLen,
		Boost:                 cfg.Feedback.Boost,
		StopWords:             cfg.Feedback.StopWords,
	})

	svc := feedbackuc.New(eng, builder, query.NewRegistry(), cfg.Feedback.Fields)
	handler := feedbackuc.NewInstrumented(svc, logger)

	server := chiTransport.NewServer(handler, eng.UniqueKeyField(), cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEngine creates the search engine for the configured driver.
func buildEngine(cfg config.Config, logger *zap.Logger) (engine.Engine, func(), error) {
	switch cfg.Database.Driver {
	case "redis":
		eng, err := engineredis.New(engineredis.Config{
			Addrs:     cfg.Database.Addrs,
			Username:  cfg.Database.Username,
			Password:  cfg.Database.Password,
			Index:     cfg.Database.Index,
			UniqueKey: cfg.Database.UniqueKey,
			KeyPrefix: cfg.Database.KeyPrefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis engine: %w", err)
		}

		timeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
		if err := eng.WaitForReady(context.Background(), timeout); err != nil {
			eng.Close()
			return nil, nil, fmt.Errorf("engine not ready: %w", err)
		}
		logger.Info("Connected to search engine")
		return eng, eng.Close, nil

	case "memory":
		// Ephemeral index, useful for local runs and demos.
		logger.Warn("Using in-memory engine, documents do not persist")
		return enginememory.New(cfg.Database.UniqueKey), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}
