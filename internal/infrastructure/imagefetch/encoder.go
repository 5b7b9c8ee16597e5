// Package imagefetch downloads images and returns them as base64 data URLs
// suitable for inlining in ranking requests.
package imagefetch

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxImageBytes = 10 << 20

// ErrFetch is returned when an image cannot be downloaded
var ErrFetch = errors.New("image fetch failed")

// Encoder converts image URLs into data URLs
type Encoder struct {
	httpClient  *http.Client
	concurrency int
	logger      *zap.Logger
}

// NewEncoder creates an encoder that runs at most concurrency downloads at once
func NewEncoder(timeout time.Duration, concurrency int, logger *zap.Logger) *Encoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Encoder{
		httpClient:  &http.Client{Timeout: timeout},
		concurrency: concurrency,
		logger:      logger.Named("imagefetch"),
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (e *Encoder) SetHTTPClient(httpClient *http.Client) {
	e.httpClient = httpClient
}

// EncodeURL returns imageURL as a data URL. Data URLs are returned unchanged.
func (e *Encoder) EncodeURL(ctx context.Context, imageURL string) (string, error) {
	if strings.HasPrefix(imageURL, "data:") {
		return imageURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "create request: %v", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "%s: %v", imageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(ErrFetch, "%s: status %d", imageURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", errors.Wrapf(ErrFetch, "%s: read: %v", imageURL, err)
	}
	if len(data) > maxImageBytes {
		return "", errors.Wrapf(ErrFetch, "%s: image exceeds %d bytes", imageURL, maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// EncodeAll encodes every URL, preserving order. The first failure cancels the rest.
func (e *Encoder) EncodeAll(ctx context.Context, urls []string) ([]string, error) {
	out := make([]string, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			encoded, err := e.EncodeURL(gctx, u)
			if err != nil {
				return err
			}
			out[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("failed to encode images", zap.Int("count", len(urls)), zap.Error(err))
		return nil, err
	}
	return out, nil
}
