package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
)

// AnalysisService streams screenshot analysis from the recognition service
type AnalysisService struct {
	client domain.RecognitionClient
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(client domain.RecognitionClient, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisService{
		client: client,
		logger: logger.Named("analysis"),
		now:    time.Now,
	}
}

// Analyze submits image and forwards classified events to callbacks in arrival order
func (s *AnalysisService) Analyze(ctx context.Context, image string, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	if image == "" {
		return domain.StateIdle, domain.ErrInvalidRequest
	}

	req := domain.AnalyzeRequest{
		Image: image,
		Metadata: &domain.AnalyzeMetadata{
			Timestamp: s.now().UTC().Format(time.RFC3339),
		},
	}

	start := s.now()
	state, err := s.client.AnalyzeStream(ctx, req, callbacks)
	s.logger.Info("analysis finished",
		zap.Stringer("state", state),
		zap.Duration("elapsed", s.now().Sub(start)),
		zap.Error(err))
	return state, err
}

// AnalyzeAll runs Analyze and returns every detected product once the stream completes
func (s *AnalysisService) AnalyzeAll(ctx context.Context, image string) ([]domain.Product, error) {
	var products []domain.Product
	_, err := s.Analyze(ctx, image, domain.StreamCallbacks{
		OnProduct: func(p domain.Product) { products = append(products, p) },
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}
