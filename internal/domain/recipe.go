package domain

import (
	"time"

	"github.com/google/uuid"
)

// Placeholder values stored when a scraped recipe page does not carry a field.
const (
	Unspecified      = "指定なし"
	UnknownValue     = "unknown"
	UnrankedRank     = "999"
	ManualCategoryID = "manual"
)

// Recipe is the canonical, storage-ready recipe shape. Both ranking items
// and scraped pages are normalized into it.
type Recipe struct {
	ID               string
	Title            string
	Description      string
	Materials        []string
	Time             string
	Cost             string
	Rank             string
	Pickup           int
	Image            *string
	URL              string
	PublishDay       string
	Nickname         string
	Shop             int
	SourceCategoryID string
}

// Ownership links an actor to a recipe they have pulled into their stock.
type Ownership struct {
	ActorID  uuid.UUID
	RecipeID string
	AddedAt  time.Time
}

// OwnedRecipe is a recipe as seen from an actor's stock.
type OwnedRecipe struct {
	Recipe
	AddedAt time.Time
}

// RecipeFilter narrows a listing of owned recipes.
type RecipeFilter struct {
	// Query is matched case-insensitively as a substring of the title joined
	// with every material. Empty means no text filter.
	Query string

	// Limit is the maximum number of recipes to return. 0 means no limit.
	Limit int

	// Offset is the number of recipes to skip.
	Offset int
}
