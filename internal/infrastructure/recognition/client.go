// Package recognition talks to the remote screenshot recognition service:
// streaming analysis, streaming similarity ranking and screenshot lookup.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pauseshop/backend/internal/domain"
	"github.com/pauseshop/backend/internal/infrastructure/sse"
)

const (
	analyzePath    = "/analyze/stream"
	rankPath       = "/rank/stream"
	screenshotPath = "/screenshot/"

	sessionImageUnavailableCode = "SESSION_IMAGE_UNAVAILABLE"

	defaultReadSize = 4096
	maxErrorBody    = 64 * 1024
)

// ClientConfig holds configuration for the recognition client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client handles communication with the recognition service
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	readSize    int
}

// NewClient creates a new recognition service client
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      logger.Named("recognition"),
		readSize:    defaultReadSize,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// SetReadSize sets the maximum number of body bytes consumed per read
func (c *Client) SetReadSize(n int) {
	if n > 0 {
		c.readSize = n
	}
}

// AnalyzeStream submits a screenshot for analysis and delivers detected
// products through callbacks until the stream completes, fails or ctx is
// cancelled.
func (c *Client) AnalyzeStream(ctx context.Context, req domain.AnalyzeRequest, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	return c.stream(ctx, analyzePath, req, callbacks)
}

// RankStream submits a ranking request and delivers ranking updates through callbacks.
// A 404 carrying SESSION_IMAGE_UNAVAILABLE returns domain.ErrSessionImageUnavailable
// without invoking OnError.
func (c *Client) RankStream(ctx context.Context, req domain.RankingRequest, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	return c.stream(ctx, rankPath, req, callbacks)
}

// GetScreenshot fetches the screenshot stored for pauseID. Any failure,
// including success:false, is reported as not found.
func (c *Client) GetScreenshot(ctx context.Context, pauseID string) (string, bool) {
	log := c.logger.With(zap.String("pause_id", pauseID))

	if pauseID == "" {
		return "", false
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		log.Warn("screenshot rate limiter error", zap.Error(err))
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+screenshotPath+url.PathEscape(pauseID), nil)
	if err != nil {
		log.Warn("failed to create screenshot request", zap.Error(err))
		return "", false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("screenshot request failed", zap.Error(err))
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Info("screenshot not available", zap.Int("status", resp.StatusCode))
		return "", false
	}

	var body struct {
		Success    bool   `json:"success"`
		Screenshot string `json:"screenshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Warn("failed to decode screenshot response", zap.Error(err))
		return "", false
	}
	if !body.Success || body.Screenshot == "" {
		return "", false
	}
	return body.Screenshot, true
}

// stream runs one request through Sending and Streaming to a terminal state.
// Cancellation is polled before every read and before every callback.
func (c *Client) stream(ctx context.Context, path string, body any, callbacks domain.StreamCallbacks) (domain.StreamState, error) {
	log := c.logger.With(zap.String("endpoint", path))

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.StateFailed, errors.Wrap(err, "encode request")
	}

	// Sending
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return c.cancelled(log, nil)
		}
		return c.fail(log, callbacks, domain.ErrorKindConnection, err.Error(), errors.Wrap(domain.ErrConnection, err.Error()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return domain.StateFailed, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return c.cancelled(log, nil)
		}
		return c.fail(log, callbacks, domain.ErrorKindConnection, err.Error(), errors.Wrap(domain.ErrConnection, err.Error()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if resp.StatusCode == http.StatusNotFound && errorCode(raw) == sessionImageUnavailableCode {
			log.Info("session image unavailable")
			return domain.StateFailed, domain.ErrSessionImageUnavailable
		}
		msg := "HTTP " + resp.Status
		return c.fail(log, callbacks, domain.ErrorKindConnection, msg, errors.Wrapf(domain.ErrConnection, "status %d", resp.StatusCode))
	}
	if resp.Body == http.NoBody {
		return c.fail(log, callbacks, domain.ErrorKindConnection, "response body is empty", errors.Wrap(domain.ErrConnection, "empty body"))
	}

	// Streaming
	decoder := sse.NewDecoder(log)
	defer decoder.Close()

	buf := make([]byte, c.readSize)
	for {
		if ctx.Err() != nil {
			return c.cancelled(log, resp.Body)
		}

		n, readErr := resp.Body.Read(buf)
		for _, event := range decoder.Feed(buf[:n]) {
			if ctx.Err() != nil {
				return c.cancelled(log, resp.Body)
			}

			switch e := event.(type) {
			case domain.ProductEvent:
				if callbacks.OnProduct != nil {
					callbacks.OnProduct(e.Product)
				}
			case domain.RankingEvent:
				if callbacks.OnRanking != nil {
					callbacks.OnRanking(e.Ranking)
				}
			case domain.CompletionEvent:
				log.Debug("stream completed", zap.String("kind", string(e.Kind)))
				if callbacks.OnComplete != nil {
					callbacks.OnComplete(e)
				}
				return domain.StateCompleted, nil
			case domain.ErrorEvent:
				log.Warn("server reported error", zap.String("code", e.Code), zap.String("message", e.Message))
				if callbacks.OnError != nil {
					callbacks.OnError(e)
				}
				return domain.StateFailed, e.Err()
			}
		}

		if readErr == io.EOF {
			log.Debug("stream ended without completion frame")
			if callbacks.OnComplete != nil {
				callbacks.OnComplete(domain.CompletionEvent{Kind: domain.CompletionEndOfStream})
			}
			return domain.StateCompleted, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return c.cancelled(log, resp.Body)
			}
			return c.fail(log, callbacks, domain.ErrorKindStream, readErr.Error(), errors.Wrap(domain.ErrStreamRead, readErr.Error()))
		}
	}
}

// cancelled releases body, if any, and reports the Cancelled state
func (c *Client) cancelled(log *zap.Logger, body io.Closer) (domain.StreamState, error) {
	if body != nil {
		body.Close()
	}
	log.Info("stream cancelled")
	return domain.StateCancelled, domain.ErrStreamCancelled
}

// fail delivers a transport error event and reports the Failed state
func (c *Client) fail(log *zap.Logger, callbacks domain.StreamCallbacks, kind domain.ErrorKind, msg string, err error) (domain.StreamState, error) {
	log.Error("stream failed", zap.String("kind", string(kind)), zap.Error(err))
	if callbacks.OnError != nil {
		callbacks.OnError(domain.ErrorEvent{Kind: kind, Message: msg})
	}
	return domain.StateFailed, err
}

// errorCode extracts the code field from a JSON error body
func errorCode(raw []byte) string {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Code
}
