package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/pauseshop/backend/internal/domain"
)

// rankScript is the scripted outcome of one RankStream call
type rankScript struct {
	rankings []domain.RankingResult
	err      error
}

// MockRecognitionClient is a mock implementation of domain.RecognitionClient
type MockRecognitionClient struct {
	rankScripts  []rankScript
	rankRequests []domain.RankingRequest

	products       []domain.Product
	analyzeErr     error
	analyzeRequest *domain.AnalyzeRequest

	screenshots     map[string]string
	screenshotCalls int
}

func (m *MockRecognitionClient) AnalyzeStream(ctx context.Context, req domain.AnalyzeRequest, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	m.analyzeRequest = &req
	for _, p := range m.products {
		if callbacks.OnProduct != nil {
			callbacks.OnProduct(p)
		}
	}
	if m.analyzeErr != nil {
		return domain.StateFailed, m.analyzeErr
	}
	if callbacks.OnComplete != nil {
		callbacks.OnComplete(domain.CompletionEvent{Kind: domain.CompletionAnalysis})
	}
	return domain.StateCompleted, nil
}

func (m *MockRecognitionClient) RankStream(ctx context.Context, req domain.RankingRequest, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	m.rankRequests = append(m.rankRequests, req)
	if len(m.rankScripts) == 0 {
		return domain.StateFailed, domain.ErrConnection
	}
	script := m.rankScripts[0]
	m.rankScripts = m.rankScripts[1:]

	for _, r := range script.rankings {
		if callbacks.OnRanking != nil {
			callbacks.OnRanking(r)
		}
	}
	if script.err != nil {
		if script.err == domain.ErrStreamCancelled {
			return domain.StateCancelled, script.err
		}
		return domain.StateFailed, script.err
	}
	return domain.StateCompleted, nil
}

func (m *MockRecognitionClient) GetScreenshot(ctx context.Context, pauseID string) (string, bool) {
	m.screenshotCalls++
	s, ok := m.screenshots[pauseID]
	return s, ok
}

// MockImageEncoder prefixes URLs instead of fetching them
type MockImageEncoder struct {
	encodeErr error
	encoded   []string
}

func (m *MockImageEncoder) EncodeURL(ctx context.Context, imageURL string) (string, error) {
	if m.encodeErr != nil {
		return "", m.encodeErr
	}
	m.encoded = append(m.encoded, imageURL)
	if strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}
	return "data:image/jpeg;base64," + imageURL, nil
}

func (m *MockImageEncoder) EncodeAll(ctx context.Context, urls []string) ([]string, error) {
	out := make([]string, len(urls))
	for i, u := range urls {
		s, err := m.EncodeURL(ctx, u)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// MockScreenshotCache is a mock implementation of domain.ScreenshotCache
type MockScreenshotCache struct {
	data     map[string]string
	setError error
	setCalls int
}

func NewMockScreenshotCache() *MockScreenshotCache {
	return &MockScreenshotCache{data: make(map[string]string)}
}

func (m *MockScreenshotCache) Get(ctx context.Context, pauseID string) (string, error) {
	if v, ok := m.data[pauseID]; ok {
		return v, nil
	}
	return "", domain.ErrCacheMiss
}

func (m *MockScreenshotCache) Set(ctx context.Context, pauseID string, dataURL string, ttl time.Duration) error {
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[pauseID] = dataURL
	return nil
}

func (m *MockScreenshotCache) Delete(ctx context.Context, pauseID string) error {
	delete(m.data, pauseID)
	return nil
}
