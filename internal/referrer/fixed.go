package referrer

import (
	"math"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pauseshop/backend/internal/domain"
)

const (
	fieldSeparator   = "~"
	listSeparator    = ","
	productSeparator = "|"

	fullProductLength = domain.ImageIDLength + domain.ASINLength
	maxBarePriceLen   = fullProductLength - domain.ImageIDLength - 1
)

// Defaults applied to empty product fields on decode
const (
	defaultProductName  = "Unknown Product"
	defaultIconCategory = "other"
	defaultBrand        = "Unknown Brand"
	defaultPrimaryColor = "#000000"
)

// Encode packs product and its marketplace listings into the fixed-length format:
//
//	name~icon~catIdx~brand~color~sec,colors~feat,ures~genderIdx~terms~conf||clicked|amz1|amz2
//
// Values that the format cannot carry unambiguously are rejected with ErrUnencodable.
func Encode(product domain.Product, products []domain.MarketplaceProduct, clickedIndex int) (string, error) {
	productSection, err := encodeProductContext(product)
	if err != nil {
		return "", err
	}
	if len(products) == 0 {
		return "", domain.ErrNoProducts
	}

	parts := make([]string, 0, len(products)+1)
	parts = append(parts, strconv.Itoa(clickedIndex))
	for i, p := range products {
		s, err := encodeAmazonProduct(p)
		if err != nil {
			return "", errors.Wrapf(err, "product %d", i)
		}
		parts = append(parts, s)
	}

	return productSection + sectionSeparator + strings.Join(parts, productSeparator), nil
}

func encodeProductContext(p domain.Product) (string, error) {
	scalars := []string{p.Name, p.IconCategory, p.Brand, p.PrimaryColor, p.SearchTerms}
	for _, s := range scalars {
		if strings.ContainsAny(s, fieldSeparator+productSeparator) {
			return "", errors.Wrapf(domain.ErrUnencodable, "field %q contains a separator", s)
		}
	}
	secondary, err := joinList(p.SecondaryColors)
	if err != nil {
		return "", err
	}
	features, err := joinList(p.Features)
	if err != nil {
		return "", err
	}

	confidence := int(math.Round(p.Confidence * 10))
	confidence = min(max(confidence, 0), 10)

	fields := []string{
		p.Name,
		p.IconCategory,
		strconv.Itoa(domain.CategoryIndex(p.Category)),
		p.Brand,
		p.PrimaryColor,
		secondary,
		features,
		strconv.Itoa(domain.GenderIndex(p.TargetGender)),
		p.SearchTerms,
		strconv.Itoa(confidence),
	}
	return strings.Join(fields, fieldSeparator), nil
}

func joinList(items []string) (string, error) {
	for _, item := range items {
		if item == "" || strings.ContainsAny(item, listSeparator+fieldSeparator+productSeparator) {
			return "", errors.Wrapf(domain.ErrUnencodable, "list item %q", item)
		}
	}
	return strings.Join(items, listSeparator), nil
}

func encodeAmazonProduct(p domain.MarketplaceProduct) (string, error) {
	if len(p.ImageID) != domain.ImageIDLength || strings.Contains(p.ImageID, productSeparator) {
		return "", errors.Wrapf(domain.ErrUnencodable, "image id %q must be %d characters", p.ImageID, domain.ImageIDLength)
	}
	if p.ASIN != "" && (len(p.ASIN) != domain.ASINLength || strings.Contains(p.ASIN, productSeparator)) {
		return "", errors.Wrapf(domain.ErrUnencodable, "asin %q must be %d characters", p.ASIN, domain.ASINLength)
	}

	s := p.ImageID + p.ASIN
	if p.Price == nil {
		return s, nil
	}
	if p.Price.IsNegative() {
		return "", errors.Wrapf(domain.ErrUnencodable, "negative price %s", p.Price)
	}
	cents := strconv.FormatInt(p.Price.Shift(2).Round(0).IntPart(), 10)
	if p.ASIN == "" && len(cents) > maxBarePriceLen {
		// id+price would reach the id+asin length
		return "", errors.Wrapf(domain.ErrUnencodable, "price %s too long without asin", p.Price)
	}
	return s + cents, nil
}

func decodeFixedLength(encoded string) (*domain.DecodedReferrerBundle, error) {
	sections := strings.Split(encoded, sectionSeparator)
	if len(sections) < 2 || sections[0] == "" || sections[1] == "" {
		return nil, errors.Wrap(domain.ErrMalformedReferrer, "missing section")
	}

	product := parseProductContext(sections[0])

	parts := strings.Split(sections[1], productSeparator)
	clicked, _ := parseLeadingInt(parts[0])

	var products []domain.MarketplaceProduct
	for _, part := range parts[1:] {
		if len(part) < domain.ImageIDLength {
			continue
		}
		p := ParseAmazonProduct(part)
		p.ThumbnailURL = ThumbnailURL(p.ImageID)
		p.ProductURL = ProductURL(p.ASIN)
		p.Position = len(products)
		products = append(products, p)
	}

	return newBundle(&product, products, clicked)
}

func parseProductContext(section string) domain.Product {
	parts := strings.Split(section, fieldSeparator)
	field := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	p := domain.Product{
		Name:            orDefault(field(0), defaultProductName),
		IconCategory:    orDefault(field(1), defaultIconCategory),
		Category:        domain.CategoryOther,
		Brand:           orDefault(field(3), defaultBrand),
		PrimaryColor:    orDefault(field(4), defaultPrimaryColor),
		SecondaryColors: splitList(field(5)),
		Features:        splitList(field(6)),
		TargetGender:    domain.GenderUnisex,
		SearchTerms:     field(8),
	}
	if idx, ok := parseLeadingInt(field(2)); ok {
		p.Category = domain.CategoryFromIndex(idx)
	}
	if idx, ok := parseLeadingInt(field(7)); ok {
		p.TargetGender = domain.GenderFromIndex(idx)
	}
	if conf, ok := parseLeadingInt(field(9)); ok {
		p.Confidence = float64(min(max(conf, 0), 10)) / 10
	}
	return p
}

// ParseAmazonProduct splits one per-product token into image id, asin and price.
// The split is decided by total length alone:
//
//	11     image id
//	21     image id + asin
//	12..20 image id + price
//	>21    image id + asin + price
//
// Price digits are minor units. Tokens shorter than 11 characters yield only
// the token as image id; callers filter those out first. URLs and position
// are left for the caller.
func ParseAmazonProduct(token string) domain.MarketplaceProduct {
	if len(token) <= domain.ImageIDLength {
		return domain.MarketplaceProduct{ImageID: token}
	}

	p := domain.MarketplaceProduct{ImageID: token[:domain.ImageIDLength]}
	switch {
	case len(token) == fullProductLength:
		p.ASIN = token[domain.ImageIDLength:]
	case len(token) < fullProductLength:
		p.Price = parsePrice(token[domain.ImageIDLength:])
	default:
		p.ASIN = token[domain.ImageIDLength:fullProductLength]
		p.Price = parsePrice(token[fullProductLength:])
	}
	return p
}

func parsePrice(s string) *decimal.Decimal {
	cents, ok := parseLeadingInt(s)
	if !ok {
		return nil
	}
	price := decimal.New(int64(cents), -2)
	return &price
}

// newBundle assembles a bundle, falling back to the first product when clicked is out of range
func newBundle(product *domain.Product, products []domain.MarketplaceProduct, clicked int) (*domain.DecodedReferrerBundle, error) {
	if len(products) == 0 {
		return nil, domain.ErrNoProducts
	}
	if clicked < 0 || clicked >= len(products) {
		clicked = 0
	}
	return &domain.DecodedReferrerBundle{
		Product:      product,
		Products:     products,
		ClickedIndex: clicked,
	}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, listSeparator)
}

// parseLeadingInt reads an optionally signed run of leading decimal digits,
// ignoring leading whitespace and any trailing garbage. ok is false when no
// digits are present or the value overflows.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
