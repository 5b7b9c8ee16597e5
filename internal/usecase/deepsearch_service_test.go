package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pauseshop/backend/internal/domain"
	"github.com/pauseshop/backend/internal/infrastructure/recognition"
	"github.com/pauseshop/backend/internal/referrer"
)

func testProducts() []domain.MarketplaceProduct {
	ids := []string{"71abcDEFghI", "81xyzXYZ123", "91qweRTY456"}
	products := make([]domain.MarketplaceProduct, len(ids))
	for i, id := range ids {
		products[i] = domain.MarketplaceProduct{ImageID: id, ThumbnailURL: referrer.ThumbnailURL(id), Position: i}
	}
	return products
}

func testDeepSearchRequest() DeepSearchRequest {
	return DeepSearchRequest{
		Product:  domain.Product{Name: "Red Mug", Category: domain.CategoryKitchenDining},
		Products: testProducts(),
		PauseID:  "pause-1",
		ImageURL: "data:image/png;base64,ORIGINAL",
	}
}

var denseRankings = []domain.RankingResult{
	{ID: "2", Rank: 1, SimilarityScore: 0.95},
	{ID: "0", Rank: 3, SimilarityScore: 0.40},
	{ID: "1", Rank: 2, SimilarityScore: 0.70},
}

func TestDeepSearch_SessionImage(t *testing.T) {
	client := &MockRecognitionClient{rankScripts: []rankScript{{rankings: denseRankings}}}
	images := &MockImageEncoder{}
	service := NewDeepSearchService(client, images, nil)

	var streamed []domain.RankingResult
	result, err := service.Rank(context.Background(), testDeepSearchRequest(), func(r domain.RankingResult) {
		streamed = append(streamed, r)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.UsedFallback)
	assert.Equal(t, denseRankings, streamed)

	require.Len(t, result.Ranked, 3)
	assert.Equal(t, "91qweRTY456", result.Ranked[0].ImageID)
	assert.Equal(t, 1, result.Ranked[0].Rank)
	assert.Equal(t, "81xyzXYZ123", result.Ranked[1].ImageID)
	assert.Equal(t, "71abcDEFghI", result.Ranked[2].ImageID)

	require.Len(t, client.rankRequests, 1)
	req := client.rankRequests[0]
	assert.Equal(t, "pause-1", req.PauseID)
	assert.Empty(t, req.OriginalImage)
	assert.Equal(t, "Red Mug", req.ProductName)
	assert.Equal(t, domain.CategoryKitchenDining, req.Category)
	require.Len(t, req.Thumbnails, 3)
	assert.Equal(t, "0", req.Thumbnails[0].ID)
	assert.Equal(t, "data:image/jpeg;base64,"+referrer.ThumbnailURL("71abcDEFghI"), req.Thumbnails[0].Image)
}

func TestDeepSearch_FallbackRetry(t *testing.T) {
	client := &MockRecognitionClient{rankScripts: []rankScript{
		{err: domain.ErrSessionImageUnavailable},
		{rankings: denseRankings},
	}}
	service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

	result, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.True(t, result.UsedFallback)
	assert.Len(t, result.Ranked, 3)

	require.Len(t, client.rankRequests, 2)
	retry := client.rankRequests[1]
	assert.Empty(t, retry.PauseID)
	assert.Equal(t, "data:image/png;base64,ORIGINAL", retry.OriginalImage)
	assert.Equal(t, client.rankRequests[0].Thumbnails, retry.Thumbnails)
}

func TestDeepSearch_FallbackRetriedOnlyOnce(t *testing.T) {
	client := &MockRecognitionClient{rankScripts: []rankScript{
		{err: domain.ErrSessionImageUnavailable},
		{err: domain.ErrSessionImageUnavailable},
		{rankings: denseRankings},
	}}
	service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

	result, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrSessionImageUnavailable)
	assert.Len(t, client.rankRequests, 2)
}

func TestDeepSearch_ScreenshotExpired(t *testing.T) {
	client := &MockRecognitionClient{rankScripts: []rankScript{{err: domain.ErrSessionImageUnavailable}}}
	service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

	req := testDeepSearchRequest()
	req.ImageURL = ""
	result, err := service.Rank(context.Background(), req, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrScreenshotExpired)
	assert.Len(t, client.rankRequests, 1)
}

func TestDeepSearch_OtherErrorsPropagate(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"server error", &domain.StreamError{Kind: domain.ErrorKindProcessing, Code: "PROCESSING_ERROR", Message: "boom"}},
		{"connection error", domain.ErrConnection},
		{"cancelled", domain.ErrStreamCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockRecognitionClient{rankScripts: []rankScript{{err: tt.err}, {rankings: denseRankings}}}
			service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

			result, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)

			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.err)
			assert.Len(t, client.rankRequests, 1)
		})
	}
}

func TestDeepSearch_WithoutPauseIDUsesInlineImage(t *testing.T) {
	client := &MockRecognitionClient{rankScripts: []rankScript{{rankings: denseRankings}}}
	service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

	req := testDeepSearchRequest()
	req.PauseID = ""
	result, err := service.Rank(context.Background(), req, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.True(t, result.UsedFallback)
	require.Len(t, client.rankRequests, 1)
	assert.Equal(t, "data:image/png;base64,ORIGINAL", client.rankRequests[0].OriginalImage)
}

func TestDeepSearch_RankValidation(t *testing.T) {
	tests := []struct {
		name     string
		rankings []domain.RankingResult
		wantErr  error
		wantLen  int
	}{
		{
			name:     "duplicate rank",
			rankings: []domain.RankingResult{{ID: "0", Rank: 1}, {ID: "1", Rank: 1}},
			wantErr:  domain.ErrInconsistentRanking,
		},
		{
			name:     "gap in ranks",
			rankings: []domain.RankingResult{{ID: "0", Rank: 1}, {ID: "1", Rank: 3}},
			wantErr:  domain.ErrInconsistentRanking,
		},
		{
			name:     "unknown id dropped",
			rankings: []domain.RankingResult{{ID: "0", Rank: 2}, {ID: "99", Rank: 1}},
			wantLen:  1,
		},
		{
			name:    "no rankings",
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockRecognitionClient{rankScripts: []rankScript{{rankings: tt.rankings}}}
			service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

			result, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Ranked, tt.wantLen)
		})
	}
}

func TestDeepSearch_InvalidRequest(t *testing.T) {
	service := NewDeepSearchService(&MockRecognitionClient{}, &MockImageEncoder{}, nil)

	req := testDeepSearchRequest()
	req.Products = nil
	_, err := service.Rank(context.Background(), req, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	req = testDeepSearchRequest()
	req.Product.Name = ""
	_, err = service.Rank(context.Background(), req, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestDeepSearch_ThumbnailFailure(t *testing.T) {
	client := &MockRecognitionClient{}
	images := &MockImageEncoder{encodeErr: errors.New("cdn down")}
	service := NewDeepSearchService(client, images, nil)

	_, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)
	assert.Error(t, err)
	assert.Empty(t, client.rankRequests)
}

func TestDeepSearch_FallbackOverHTTP(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"SESSION_IMAGE_UNAVAILABLE","message":"expired"}`)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"rank\":1,\"similarityScore\":0.9}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"0\",\"rank\":2,\"similarityScore\":0.4}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"2\",\"rank\":3,\"similarityScore\":0.1}\n\n")
		fmt.Fprint(w, "data: {\"totalRankings\":3,\"processingTime\":500}\n\n")
	}))
	defer server.Close()

	client := recognition.NewClient(recognition.ClientConfig{BaseURL: server.URL}, nil)
	client.SetHTTPClient(server.Client())
	service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

	result, err := service.Rank(context.Background(), testDeepSearchRequest(), nil)

	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.Equal(t, 2, result.Attempts)
	require.Len(t, result.Ranked, 3)
	assert.Equal(t, "81xyzXYZ123", result.Ranked[0].ImageID)
}

func TestDeepSearch_JoinIgnoresCallerPositions(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
	}{
		{"missing positions", []int{0, 0, 0}},
		{"duplicate positions", []int{4, 4, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products := testProducts()
			for i := range products {
				products[i].Position = tt.positions[i]
			}
			client := &MockRecognitionClient{rankScripts: []rankScript{{rankings: []domain.RankingResult{
				{ID: "1", Rank: 1},
				{ID: "2", Rank: 2},
				{ID: "0", Rank: 3},
			}}}}
			service := NewDeepSearchService(client, &MockImageEncoder{}, nil)

			req := testDeepSearchRequest()
			req.Products = products
			result, err := service.Rank(context.Background(), req, nil)
			require.NoError(t, err)

			require.Len(t, client.rankRequests, 1)
			var ids []string
			for _, th := range client.rankRequests[0].Thumbnails {
				ids = append(ids, th.ID)
			}
			assert.Equal(t, []string{"0", "1", "2"}, ids)

			require.Len(t, result.Ranked, 3)
			assert.Equal(t, "81xyzXYZ123", result.Ranked[0].ImageID)
			assert.Equal(t, "91qweRTY456", result.Ranked[1].ImageID)
			assert.Equal(t, "71abcDEFghI", result.Ranked[2].ImageID)
		})
	}
}
