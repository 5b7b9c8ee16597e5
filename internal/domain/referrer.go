package domain

import "github.com/shopspring/decimal"

const (
	// ImageIDLength is the fixed length of a marketplace image identifier
	ImageIDLength = 11
	// ASINLength is the fixed length of a marketplace catalog identifier
	ASINLength = 10
)

// MarketplaceProduct is one scraped marketplace listing shown next to a detected product
type MarketplaceProduct struct {
	ImageID      string           `json:"imageId"`
	ASIN         string           `json:"amazonAsin,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	ThumbnailURL string           `json:"thumbnailUrl"`
	ProductURL   *string          `json:"productUrl"`
	Position     int              `json:"position"`
}

// DecodedReferrerBundle is the result of decoding a referrer data parameter.
// Products is never empty and ClickedIndex is always a valid index into it.
type DecodedReferrerBundle struct {
	Product      *Product             `json:"product,omitempty"`
	Products     []MarketplaceProduct `json:"amazonProducts"`
	ClickedIndex int                  `json:"clickedPosition"`
}

// ClickedProduct returns the marketplace product that was selected
func (b *DecodedReferrerBundle) ClickedProduct() MarketplaceProduct {
	return b.Products[b.ClickedIndex]
}
