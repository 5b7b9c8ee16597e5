package referrer

import "fmt"

const (
	thumbnailURLTemplate = "https://m.media-amazon.com/images/I/%s._AC_UL320_.jpg"
	productURLPrefix     = "https://www.amazon.com/dp/"
)

// ThumbnailURL builds the CDN thumbnail URL for an image id
func ThumbnailURL(imageID string) string {
	return fmt.Sprintf(thumbnailURLTemplate, imageID)
}

// ProductURL builds the catalog URL for an asin, or nil if asin is empty
func ProductURL(asin string) *string {
	if asin == "" {
		return nil
	}
	u := productURLPrefix + asin
	return &u
}
