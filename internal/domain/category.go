package domain

// CategoryLevel is the depth of a category in the upstream hierarchy.
type CategoryLevel string

const (
	CategoryLarge  CategoryLevel = "large"
	CategoryMedium CategoryLevel = "medium"
	CategorySmall  CategoryLevel = "small"
)

// CatalogEntry is a flattened category.
//
// ID is the composite identifier accepted by the ranking endpoint:
// "large", "large-medium" or "large-medium-small". DisplayID is the leaf's
// own id and is empty for large categories.
type CatalogEntry struct {
	ID        string
	DisplayID string
	Name      string
	Path      string
	Level     CategoryLevel
}

// ScoredEntry is a catalog entry ranked against a free-text query.
type ScoredEntry struct {
	CatalogEntry
	Score int
}
