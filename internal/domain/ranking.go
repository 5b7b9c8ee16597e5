package domain

// ThumbnailPayload is one candidate image sent in a ranking request
type ThumbnailPayload struct {
	ID    string `json:"id"`
	Image string `json:"image"`
}

// RankingRequest is the body of a deep search ranking request. Exactly one of
// PauseID and OriginalImage is set.
type RankingRequest struct {
	ProductName   string             `json:"productName"`
	Category      Category           `json:"category"`
	PauseID       string             `json:"pauseId,omitempty"`
	OriginalImage string             `json:"originalImage,omitempty"`
	Thumbnails    []ThumbnailPayload `json:"thumbnails"`
}

// RankingResult is a single similarity ranking for a thumbnail
type RankingResult struct {
	ID              string  `json:"id"`
	Rank            int     `json:"rank"`
	SimilarityScore float64 `json:"similarityScore"`
}

// RankedProduct joins a marketplace product with its ranking
type RankedProduct struct {
	MarketplaceProduct
	Rank            int     `json:"rank"`
	SimilarityScore float64 `json:"similarityScore"`
}

// AnalyzeRequest is the body of a streaming analysis request
type AnalyzeRequest struct {
	Image    string           `json:"image"`
	Metadata *AnalyzeMetadata `json:"metadata,omitempty"`
}

// AnalyzeMetadata carries client-side details about the analysis request
type AnalyzeMetadata struct {
	Timestamp string `json:"timestamp"`
}
