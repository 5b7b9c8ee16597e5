package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
)

// ScreenshotService looks up pause screenshots, caching hits by pauseId
type ScreenshotService struct {
	cache    domain.ScreenshotCache
	client   domain.RecognitionClient
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewScreenshotService creates a new screenshot service
func NewScreenshotService(cache domain.ScreenshotCache, client domain.RecognitionClient, cacheTTL time.Duration, logger *zap.Logger) *ScreenshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	return &ScreenshotService{
		cache:    cache,
		client:   client,
		cacheTTL: cacheTTL,
		logger:   logger.Named("screenshot"),
	}
}

// Get returns the screenshot for pauseID. ok is false when no screenshot is
// available for any reason.
func (s *ScreenshotService) Get(ctx context.Context, pauseID string) (string, bool) {
	if pauseID == "" {
		return "", false
	}

	if cached, err := s.cache.Get(ctx, pauseID); err == nil {
		return cached, true
	}

	screenshot, ok := s.client.GetScreenshot(ctx, pauseID)
	if !ok {
		return "", false
	}

	if err := s.cache.Set(ctx, pauseID, screenshot, s.cacheTTL); err != nil {
		// Log but don't fail if caching fails
		s.logger.Warn("failed to cache screenshot", zap.String("pause_id", pauseID), zap.Error(err))
	}
	return screenshot, true
}

// Invalidate drops the cached screenshot for pauseID. Used once the
// recognition service reports the session image as gone.
func (s *ScreenshotService) Invalidate(ctx context.Context, pauseID string) {
	if pauseID == "" {
		return
	}
	if err := s.cache.Delete(ctx, pauseID); err != nil {
		s.logger.Warn("failed to evict screenshot", zap.String("pause_id", pauseID), zap.Error(err))
	}
}
