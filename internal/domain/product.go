package domain

// Category is the closed set of product categories
type Category string

const (
	CategoryClothing           Category = "clothing"
	CategoryElectronics        Category = "electronics"
	CategoryFurniture          Category = "furniture"
	CategoryAccessories        Category = "accessories"
	CategoryFootwear           Category = "footwear"
	CategoryHomeDecor          Category = "home_decor"
	CategoryBooksMedia         Category = "books_media"
	CategorySportsFitness      Category = "sports_fitness"
	CategoryBeautyPersonalCare Category = "beauty_personal_care"
	CategoryKitchenDining      Category = "kitchen_dining"
	CategoryOther              Category = "other"
)

// TargetGender is the closed set of target audiences
type TargetGender string

const (
	GenderMen    TargetGender = "men"
	GenderWomen  TargetGender = "women"
	GenderUnisex TargetGender = "unisex"
	GenderBoy    TargetGender = "boy"
	GenderGirl   TargetGender = "girl"
)

// categoryTable is the wire order of categories. Do not reorder.
var categoryTable = [...]Category{
	CategoryClothing,
	CategoryElectronics,
	CategoryFurniture,
	CategoryAccessories,
	CategoryFootwear,
	CategoryHomeDecor,
	CategoryBooksMedia,
	CategorySportsFitness,
	CategoryBeautyPersonalCare,
	CategoryKitchenDining,
	CategoryOther,
}

// genderTable is the wire order of genders. Do not reorder.
var genderTable = [...]TargetGender{
	GenderMen,
	GenderWomen,
	GenderUnisex,
	GenderBoy,
	GenderGirl,
}

// CategoryFromIndex returns the category at idx, or CategoryOther when idx is out of range
func CategoryFromIndex(idx int) Category {
	if idx < 0 || idx >= len(categoryTable) {
		return CategoryOther
	}
	return categoryTable[idx]
}

// CategoryIndex returns the wire index of c. Unknown categories map to the index of CategoryOther.
func CategoryIndex(c Category) int {
	for i, v := range categoryTable {
		if v == c {
			return i
		}
	}
	return len(categoryTable) - 1
}

// GenderFromIndex returns the gender at idx, or GenderUnisex when idx is out of range
func GenderFromIndex(idx int) TargetGender {
	if idx < 0 || idx >= len(genderTable) {
		return GenderUnisex
	}
	return genderTable[idx]
}

// GenderIndex returns the wire index of g. Unknown genders map to the index of GenderUnisex.
func GenderIndex(g TargetGender) int {
	for i, v := range genderTable {
		if v == g {
			return i
		}
	}
	return 2
}

// Product represents an item identified in a screenshot by the recognition service
type Product struct {
	Name            string       `json:"name"`
	IconCategory    string       `json:"iconCategory"`
	Category        Category     `json:"category"`
	Brand           string       `json:"brand,omitempty"`
	PrimaryColor    string       `json:"primaryColor,omitempty"`
	SecondaryColors []string     `json:"secondaryColors,omitempty"`
	Features        []string     `json:"features,omitempty"`
	TargetGender    TargetGender `json:"targetGender,omitempty"`
	SearchTerms     string       `json:"searchTerms,omitempty"`
	Confidence      float64      `json:"confidence"` // fraction in [0,1]
}
