package provider

// CategoryTree is the three-level category hierarchy returned by the
// upstream category list endpoint.
type CategoryTree struct {
	Large  []CategoryNode `json:"large"`
	Medium []CategoryNode `json:"medium"`
	Small  []CategoryNode `json:"small"`
}

// CategoryNode is one category as the upstream reports it. Ids arrive as
// either JSON numbers or strings depending on the level.
type CategoryNode struct {
	CategoryID       FlexString `json:"categoryId"`
	CategoryName     FlexString `json:"categoryName"`
	CategoryURL      FlexString `json:"categoryUrl"`
	ParentCategoryID FlexString `json:"parentCategoryId"`
}

// RankingItem is a single record from the category ranking endpoint.
// Every field is optional.
type RankingItem struct {
	RecipeID          FlexString `json:"recipeId"`
	RecipeTitle       FlexString `json:"recipeTitle"`
	RecipeDescription FlexString `json:"recipeDescription"`
	RecipeMaterial    FlexStrings `json:"recipeMaterial"`
	RecipeIndication  FlexString `json:"recipeIndication"`
	RecipeCost        FlexString `json:"recipeCost"`
	Rank              FlexString `json:"rank"`
	Pickup            FlexInt    `json:"pickup"`
	Shop              FlexInt    `json:"shop"`
	FoodImageURL      FlexString `json:"foodImageUrl"`
	MediumImageURL    FlexString `json:"mediumImageUrl"`
	SmallImageURL     FlexString `json:"smallImageUrl"`
	RecipeURL         FlexString `json:"recipeUrl"`
	RecipePublishday  FlexString `json:"recipePublishday"`
	Nickname          FlexString `json:"nickname"`
}

// RecipePage is the structured data scraped from a public recipe page.
type RecipePage struct {
	RecipeID    string
	URL         string
	Name        string
	Description string
	Ingredients []string
	TotalTime   string
	Image       *string
}
