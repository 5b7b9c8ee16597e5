package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
	"github.com/pauseshop/backend/internal/infrastructure/imagefetch"
	"github.com/pauseshop/backend/internal/usecase"
)

// statusClientClosedRequest is reported when the caller went away mid-request
const statusClientClosedRequest = 499

// Handler holds dependencies for HTTP handlers. Any service may be nil; its
// endpoints then answer 503.
type Handler struct {
	referrers   *usecase.ReferrerService
	analysis    *usecase.AnalysisService
	deepSearch  *usecase.DeepSearchService
	screenshots *usecase.ScreenshotService
	logger      *zap.Logger
}

// Services groups the use cases served over HTTP
type Services struct {
	Referrers   *usecase.ReferrerService
	Analysis    *usecase.AnalysisService
	DeepSearch  *usecase.DeepSearchService
	Screenshots *usecase.ScreenshotService
}

// NewHandler creates a new HTTP handler
func NewHandler(services Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		referrers:   services.Referrers,
		analysis:    services.Analysis,
		deepSearch:  services.DeepSearch,
		screenshots: services.Screenshots,
		logger:      logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pauseshop-backend",
		"version": "1.0.0",
	})
}

// DecodeReferrer decodes the data query parameter and attaches the pause screenshot if any
func (h *Handler) DecodeReferrer(c *gin.Context) {
	if h.referrers == nil {
		h.notConfigured(c, "referrer")
		return
	}

	data := c.Query("data")
	if data == "" {
		h.respondError(c, errors.Wrap(domain.ErrInvalidRequest, "data parameter is required"))
		return
	}

	resolved, err := h.referrers.Resolve(c.Request.Context(), data, c.Query("pauseId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolved)
}

// EncodeReferrerRequest is the body of POST /referrer/encode
type EncodeReferrerRequest struct {
	Product      domain.Product              `json:"product"`
	Products     []domain.MarketplaceProduct `json:"products" binding:"required"`
	ClickedIndex int                         `json:"clickedIndex"`
}

// EncodeReferrer packs a product bundle into the fixed-length format
func (h *Handler) EncodeReferrer(c *gin.Context) {
	if h.referrers == nil {
		h.notConfigured(c, "referrer")
		return
	}

	var req EncodeReferrerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	data, err := h.referrers.Encode(req.Product, req.Products, req.ClickedIndex)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Image string `json:"image" binding:"required"`
}

// Analyze relays the recognition stream to the caller as server-sent events.
// Events: product, complete, error.
func (h *Handler) Analyze(c *gin.Context) {
	if h.analysis == nil {
		h.notConfigured(c, "analysis")
		return
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var errorSent bool
	send := func(event string, data any) {
		c.SSEvent(event, data)
		c.Writer.Flush()
	}

	_, err := h.analysis.Analyze(c.Request.Context(), req.Image, domain.StreamCallbacks{
		OnProduct:  func(p domain.Product) { send("product", p) },
		OnComplete: func(e domain.CompletionEvent) { send("complete", completionBody(e)) },
		OnError: func(e domain.ErrorEvent) {
			errorSent = true
			send("error", gin.H{"error": e.Message, "kind": string(e.Kind), "code": e.Code})
		},
	})
	if err != nil && !errorSent && !errors.Is(err, domain.ErrStreamCancelled) {
		_, kind, msg := classify(err)
		send("error", gin.H{"error": msg, "kind": kind})
	}
}

func completionBody(e domain.CompletionEvent) gin.H {
	body := gin.H{"kind": string(e.Kind)}
	if e.TotalProducts != nil {
		body["totalProducts"] = *e.TotalProducts
	}
	if e.TotalRankings != nil {
		body["totalRankings"] = *e.TotalRankings
	}
	if e.ProcessingTime != nil {
		body["processingTime"] = *e.ProcessingTime
	}
	return body
}

// RankRequest is the body of POST /rank
type RankRequest struct {
	Product  domain.Product              `json:"product"`
	Products []domain.MarketplaceProduct `json:"products" binding:"required"`
	PauseID  string                      `json:"pauseId"`
	ImageURL string                      `json:"imageUrl"`
}

// Rank runs a deep search and returns the ranked products
func (h *Handler) Rank(c *gin.Context) {
	if h.deepSearch == nil {
		h.notConfigured(c, "deep search")
		return
	}

	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	result, err := h.deepSearch.Rank(c.Request.Context(), usecase.DeepSearchRequest{
		Product:  req.Product,
		Products: req.Products,
		PauseID:  req.PauseID,
		ImageURL: req.ImageURL,
	}, nil)
	if err != nil {
		if errors.Is(err, domain.ErrScreenshotExpired) && h.screenshots != nil {
			h.screenshots.Invalidate(c.Request.Context(), req.PauseID)
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetScreenshot returns the stored screenshot for a pause
func (h *Handler) GetScreenshot(c *gin.Context) {
	if h.screenshots == nil {
		h.notConfigured(c, "screenshot")
		return
	}

	screenshot, ok := h.screenshots.Get(c.Request.Context(), c.Param("pauseId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "screenshot": screenshot})
}

func (h *Handler) notConfigured(c *gin.Context, name string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": name + " service not configured",
		"kind":  "unavailable",
	})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{
		"error": "invalid request body",
		"kind":  "invalid_request",
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, kind, msg := classify(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": msg, "kind": kind})
}

// classify maps an error to an HTTP status and a short user-facing message
func classify(err error) (status int, kind string, msg string) {
	var streamErr *domain.StreamError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request", "invalid request parameters"
	case errors.Is(err, domain.ErrUnknownFormat):
		return http.StatusUnprocessableEntity, "format_error", "unrecognized referrer data"
	case errors.Is(err, domain.ErrMalformedReferrer):
		return http.StatusUnprocessableEntity, "format_error", "malformed referrer data"
	case errors.Is(err, domain.ErrNoProducts):
		return http.StatusUnprocessableEntity, "format_error", "referrer data contains no products"
	case errors.Is(err, domain.ErrUnencodable):
		return http.StatusUnprocessableEntity, "encode_error", "referrer data cannot be encoded"
	case errors.Is(err, domain.ErrScreenshotExpired), errors.Is(err, domain.ErrSessionImageUnavailable):
		return http.StatusGone, "screenshot_expired", "Saved screenshot has expired. Please pause the video again."
	case errors.As(err, &streamErr):
		return http.StatusBadGateway, string(streamErr.Kind), streamErr.Message
	case errors.Is(err, domain.ErrInconsistentRanking):
		return http.StatusBadGateway, string(domain.ErrorKindServer), "ranking response is inconsistent"
	case errors.Is(err, domain.ErrConnection):
		return http.StatusBadGateway, string(domain.ErrorKindConnection), "recognition service unavailable"
	case errors.Is(err, domain.ErrStreamRead):
		return http.StatusBadGateway, string(domain.ErrorKindStream), "recognition stream interrupted"
	case errors.Is(err, imagefetch.ErrFetch):
		return http.StatusBadGateway, "fetch_error", "could not download product images"
	case errors.Is(err, domain.ErrStreamCancelled):
		return statusClientClosedRequest, "cancelled", "request cancelled"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}
