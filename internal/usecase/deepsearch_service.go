package usecase

import (
	"context"
	"sort"
	"strconv"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/pauseshop/backend/internal/domain"
)

// ImageBatchEncoder encodes images for ranking requests
type ImageBatchEncoder interface {
	domain.ImageEncoder
	EncodeAll(ctx context.Context, urls []string) ([]string, error)
}

// DeepSearchRequest describes one deep search
type DeepSearchRequest struct {
	Product  domain.Product
	Products []domain.MarketplaceProduct
	PauseID  string
	// ImageURL is the caller's copy of the original screenshot, used only
	// when the server no longer holds the session image. May be empty.
	ImageURL string
}

// DeepSearchResult is the outcome of a completed deep search
type DeepSearchResult struct {
	Ranked       []domain.RankedProduct `json:"rankedProducts"`
	Attempts     int                    `json:"attempts"`
	UsedFallback bool                   `json:"usedFallback"`
}

// DeepSearchService ranks marketplace products by visual similarity to the
// original screenshot. It tries the server-held session image first and
// falls back once to an inline copy.
type DeepSearchService struct {
	client domain.RecognitionClient
	images ImageBatchEncoder
	logger *zap.Logger
}

// NewDeepSearchService creates a new deep search service
func NewDeepSearchService(client domain.RecognitionClient, images ImageBatchEncoder, logger *zap.Logger) *DeepSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeepSearchService{
		client: client,
		images: images,
		logger: logger.Named("deepsearch"),
	}
}

// Rank runs the ranking flow. onRanking, if set, receives each ranking update
// as it arrives. Flow: encode thumbnails -> rank by pauseId -> on
// SESSION_IMAGE_UNAVAILABLE rank once more with the inline image.
func (s *DeepSearchService) Rank(ctx context.Context, req DeepSearchRequest, onRanking func(domain.RankingResult)) (*DeepSearchResult, error) {
	if len(req.Products) == 0 || req.Product.Name == "" {
		return nil, domain.ErrInvalidRequest
	}
	log := s.logger.With(zap.String("pause_id", req.PauseID), zap.Int("products", len(req.Products)))

	thumbnails, err := s.thumbnails(ctx, req.Products)
	if err != nil {
		return nil, err
	}

	rankReq := domain.RankingRequest{
		ProductName: req.Product.Name,
		Category:    req.Product.Category,
		Thumbnails:  thumbnails,
	}
	result := &DeepSearchResult{}

	var rankings []domain.RankingResult
	if req.PauseID != "" {
		rankReq.PauseID = req.PauseID
		result.Attempts++
		rankings, err = s.attempt(ctx, rankReq, onRanking)
		if err == nil {
			return s.finish(result, req.Products, rankings)
		}
		if !errors.Is(err, domain.ErrSessionImageUnavailable) {
			return nil, err
		}
		log.Info("session image unavailable, retrying with inline image")
	}

	if req.ImageURL == "" {
		return nil, domain.ErrScreenshotExpired
	}
	original, err := s.images.EncodeURL(ctx, req.ImageURL)
	if err != nil {
		return nil, errors.Wrap(err, "encode original image")
	}

	rankReq.PauseID = ""
	rankReq.OriginalImage = original
	result.Attempts++
	result.UsedFallback = true
	rankings, err = s.attempt(ctx, rankReq, onRanking)
	if err != nil {
		return nil, err
	}
	return s.finish(result, req.Products, rankings)
}

// attempt issues one ranking request and collects its rankings
func (s *DeepSearchService) attempt(ctx context.Context, req domain.RankingRequest, onRanking func(domain.RankingResult)) ([]domain.RankingResult, error) {
	var rankings []domain.RankingResult
	_, err := s.client.RankStream(ctx, req, domain.StreamCallbacks{
		OnRanking: func(r domain.RankingResult) {
			rankings = append(rankings, r)
			if onRanking != nil {
				onRanking(r)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	return rankings, nil
}

func (s *DeepSearchService) thumbnails(ctx context.Context, products []domain.MarketplaceProduct) ([]domain.ThumbnailPayload, error) {
	urls := make([]string, len(products))
	for i, p := range products {
		urls[i] = p.ThumbnailURL
	}
	images, err := s.images.EncodeAll(ctx, urls)
	if err != nil {
		return nil, errors.Wrap(err, "encode thumbnails")
	}

	// Ids are slice indexes; caller-supplied positions may repeat or be missing
	thumbnails := make([]domain.ThumbnailPayload, len(products))
	for i := range products {
		thumbnails[i] = domain.ThumbnailPayload{ID: strconv.Itoa(i), Image: images[i]}
	}
	return thumbnails, nil
}

func (s *DeepSearchService) finish(result *DeepSearchResult, products []domain.MarketplaceProduct, rankings []domain.RankingResult) (*DeepSearchResult, error) {
	if err := checkDenseRanks(rankings); err != nil {
		return nil, err
	}

	byID := make(map[string]domain.MarketplaceProduct, len(products))
	for i, p := range products {
		byID[strconv.Itoa(i)] = p
	}

	ranked := make([]domain.RankedProduct, 0, len(rankings))
	for _, r := range rankings {
		p, ok := byID[r.ID]
		if !ok {
			s.logger.Debug("dropping ranking for unknown product", zap.String("id", r.ID))
			continue
		}
		ranked = append(ranked, domain.RankedProduct{
			MarketplaceProduct: p,
			Rank:               r.Rank,
			SimilarityScore:    r.SimilarityScore,
		})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })

	result.Ranked = ranked
	return result, nil
}

// checkDenseRanks verifies that ranks are exactly 1..N
func checkDenseRanks(rankings []domain.RankingResult) error {
	seen := make([]bool, len(rankings)+1)
	for _, r := range rankings {
		if r.Rank < 1 || r.Rank > len(rankings) || seen[r.Rank] {
			return errors.Wrapf(domain.ErrInconsistentRanking, "rank %d of %d", r.Rank, len(rankings))
		}
		seen[r.Rank] = true
	}
	return nil
}
