package domain

import (
	"context"
	"time"
)

// ScreenshotCache defines the interface for caching screenshots by pauseId
type ScreenshotCache interface {
	Get(ctx context.Context, pauseID string) (string, error)
	Set(ctx context.Context, pauseID string, dataURL string, ttl time.Duration) error
	Delete(ctx context.Context, pauseID string) error
}

// StreamCallbacks receives classified events from a streaming request, in arrival order.
// Nil callbacks are skipped.
type StreamCallbacks struct {
	OnProduct  func(Product)
	OnRanking  func(RankingResult)
	OnComplete func(CompletionEvent)
	OnError    func(ErrorEvent)
}

// RecognitionClient defines the interface for the remote recognition service
type RecognitionClient interface {
	AnalyzeStream(ctx context.Context, req AnalyzeRequest, callbacks StreamCallbacks) (StreamState, error)
	RankStream(ctx context.Context, req RankingRequest, callbacks StreamCallbacks) (StreamState, error)
	GetScreenshot(ctx context.Context, pauseID string) (string, bool)
}

// ImageEncoder turns an image URL into an inline data-URL encoding
type ImageEncoder interface {
	EncodeURL(ctx context.Context, imageURL string) (string, error)
}
