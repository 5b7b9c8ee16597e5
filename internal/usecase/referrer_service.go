package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
	"github.com/pauseshop/backend/internal/referrer"
)

// ResolvedReferrer is a decoded referrer bundle plus its screenshot, when available
type ResolvedReferrer struct {
	*domain.DecodedReferrerBundle
	Format     string `json:"format"`
	Screenshot string `json:"screenshot,omitempty"`
}

// ReferrerService decodes and encodes referrer data
type ReferrerService struct {
	screenshots *ScreenshotService
	logger      *zap.Logger
}

// NewReferrerService creates a new referrer service. screenshots may be nil.
func NewReferrerService(screenshots *ScreenshotService, logger *zap.Logger) *ReferrerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferrerService{
		screenshots: screenshots,
		logger:      logger.Named("referrer"),
	}
}

// Resolve decodes data and attaches the screenshot for pauseID if one exists.
// Decode failures are logged and returned; the bundle is then nil.
func (s *ReferrerService) Resolve(ctx context.Context, data string, pauseID string) (*ResolvedReferrer, error) {
	format := referrer.DetectFormat(data)
	bundle, err := referrer.Decode(data)
	if err != nil {
		s.logger.Warn("failed to decode referrer data",
			zap.Stringer("format", format),
			zap.Int("length", len(data)),
			zap.Error(err))
		return nil, err
	}
	s.logger.Debug("decoded referrer data",
		zap.Stringer("format", format),
		zap.Int("products", len(bundle.Products)),
		zap.Int("clicked", bundle.ClickedIndex))

	resolved := &ResolvedReferrer{DecodedReferrerBundle: bundle, Format: format.String()}
	if s.screenshots != nil && pauseID != "" {
		if screenshot, ok := s.screenshots.Get(ctx, pauseID); ok {
			resolved.Screenshot = screenshot
		}
	}
	return resolved, nil
}

// Encode packs product and products into the fixed-length format
func (s *ReferrerService) Encode(product domain.Product, products []domain.MarketplaceProduct, clickedIndex int) (string, error) {
	encoded, err := referrer.Encode(product, products, clickedIndex)
	if err != nil {
		s.logger.Warn("failed to encode referrer data", zap.Error(err))
		return "", err
	}
	return encoded, nil
}
