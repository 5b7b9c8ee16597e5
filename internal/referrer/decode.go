package referrer

import "github.com/pauseshop/backend/internal/domain"

// Decode detects the format of encoded and decodes it. Every failure is
// returned as an error wrapping one of the domain format errors; Decode
// never panics on malformed input.
func Decode(encoded string) (*domain.DecodedReferrerBundle, error) {
	switch DetectFormat(encoded) {
	case FormatFixedLength:
		return decodeFixedLength(encoded)
	case FormatLegacy:
		return decodeLegacy(encoded)
	default:
		return nil, domain.ErrUnknownFormat
	}
}
