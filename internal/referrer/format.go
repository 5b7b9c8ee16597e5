// Package referrer encodes and decodes the referrer data parameter that
// carries a detected product and its marketplace listings between the
// browser extension and the web app.
package referrer

import (
	"regexp"
	"strings"
)

// Format identifies the wire format of an encoded referrer string
type Format int

const (
	FormatUnknown Format = iota
	FormatFixedLength
	FormatLegacy
)

func (f Format) String() string {
	switch f {
	case FormatFixedLength:
		return "fixed-length"
	case FormatLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

const (
	sectionSeparator = "||"
	legacyMinLength  = 50
)

var legacyCharsetRegex = regexp.MustCompile(`^[A-Za-z0-9+/\-_=]+$`)

// DetectFormat classifies encoded as fixed-length, legacy or unknown
func DetectFormat(encoded string) Format {
	if strings.Contains(encoded, sectionSeparator) {
		return FormatFixedLength
	}
	if len(encoded) > legacyMinLength &&
		!strings.Contains(encoded, "|") &&
		legacyCharsetRegex.MatchString(encoded) {
		return FormatLegacy
	}
	return FormatUnknown
}
