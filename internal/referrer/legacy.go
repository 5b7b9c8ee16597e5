package referrer

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pauseshop/backend/internal/domain"
)

// legacyPayload is the JSON object carried by the base64 predecessor format
type legacyPayload struct {
	Clicked  int             `json:"c"`
	Products []legacyProduct `json:"p"`
}

type legacyProduct struct {
	ImageID string `json:"i"`
	ASIN    string `json:"a,omitempty"`
	Price   *int64 `json:"pr,omitempty"` // minor units
}

// decodeLegacy decodes the URL-safe base64 JSON format. It never returns a
// partial bundle.
func decodeLegacy(encoded string) (*domain.DecodedReferrerBundle, error) {
	std := strings.NewReplacer("-", "+", "_", "/").Replace(encoded)
	if rem := len(std) % 4; rem != 0 {
		std += strings.Repeat("=", 4-rem)
	}

	raw, err := base64.StdEncoding.DecodeString(std)
	if err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedReferrer, "base64: %v", err)
	}

	var payload legacyPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errors.Wrapf(domain.ErrMalformedReferrer, "json: %v", err)
	}

	products := make([]domain.MarketplaceProduct, 0, len(payload.Products))
	for i, item := range payload.Products {
		p := domain.MarketplaceProduct{
			ImageID:      item.ImageID,
			ASIN:         item.ASIN,
			ThumbnailURL: ThumbnailURL(item.ImageID),
			ProductURL:   ProductURL(item.ASIN),
			Position:     i,
		}
		if item.Price != nil {
			price := decimal.New(*item.Price, -2)
			p.Price = &price
		}
		products = append(products, p)
	}

	return newBundle(nil, products, payload.Clicked)
}
