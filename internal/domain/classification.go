package domain

// Category enumerates message intents.
type Category string

const (
	CategorySupport        Category = "support"
	CategoryBug            Category = "bug"
	CategoryFeatureRequest Category = "feature_request"
	CategoryQuestion       Category = "question"
	CategoryIrrelevant     Category = "irrelevant"
)

// Categories lists every known intent, in taxonomy order.
var Categories = []Category{
	CategorySupport,
	CategoryBug,
	CategoryFeatureRequest,
	CategoryQuestion,
	CategoryIrrelevant,
}

// ValidCategory reports whether c is part of the taxonomy.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Classification is the outcome of intent analysis for one message.
type Classification struct {
	IsRelevant bool
	Category   Category
	Confidence float64
	Reasoning  string
}

// Topic is the grouping metadata derived from a relevant message.
type Topic struct {
	GroupKey string
	Summary  string
}
