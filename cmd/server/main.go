package main

import (
	"fmt"
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pauseshop/backend/config"
	httpDelivery "github.com/pauseshop/backend/internal/delivery/http"
	"github.com/pauseshop/backend/internal/infrastructure/cache"
	"github.com/pauseshop/backend/internal/infrastructure/imagefetch"
	"github.com/pauseshop/backend/internal/infrastructure/recognition"
	"github.com/pauseshop/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting pauseshop backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("recognition_url", cfg.Recognition.BaseURL),
		zap.String("cache_type", cfg.Cache.Type),
		zap.Duration("cache_ttl", cfg.Cache.TTL))

	// Initialize infrastructure dependencies
	screenshotCache := cache.NewMemoryCache()
	defer screenshotCache.Close()

	recognitionClient := recognition.NewClient(recognition.ClientConfig{
		BaseURL:           cfg.Recognition.BaseURL,
		Timeout:           cfg.Recognition.Timeout,
		RequestsPerSecond: cfg.Recognition.RequestsPerSecond,
		Burst:             cfg.Recognition.Burst,
	}, logger)

	images := imagefetch.NewEncoder(cfg.Thumbnails.Timeout, cfg.Thumbnails.Concurrency, logger)

	// Initialize usecase layer
	screenshots := usecase.NewScreenshotService(screenshotCache, recognitionClient, cfg.Cache.TTL, logger)
	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Referrers:   usecase.NewReferrerService(screenshots, logger),
		Analysis:    usecase.NewAnalysisService(recognitionClient, logger),
		DeepSearch:  usecase.NewDeepSearchService(recognitionClient, images, logger),
		Screenshots: screenshots,
	}, logger)

	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newLogger builds a development logger outside production and applies log.level
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Server.Environment != "production" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
