package ingest

import (
	"strings"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/provider"
)

// fromRankingItem converts a ranking record to a Recipe. ok is false when
// the record carries no recipe id.
func fromRankingItem(item provider.RankingItem, categoryID string) (domain.Recipe, bool) {
	id := strings.TrimSpace(item.RecipeID.String())
	if id == "" {
		return domain.Recipe{}, false
	}

	materials := []string(item.RecipeMaterial)
	if materials == nil {
		materials = []string{}
	}

	return domain.Recipe{
		ID:               id,
		Title:            item.RecipeTitle.String(),
		Description:      item.RecipeDescription.String(),
		Materials:        materials,
		Time:             item.RecipeIndication.String(),
		Cost:             item.RecipeCost.String(),
		Rank:             item.Rank.String(),
		Pickup:           int(item.Pickup),
		Image:            firstNonEmpty(item.FoodImageURL, item.MediumImageURL, item.SmallImageURL),
		URL:              item.RecipeURL.String(),
		PublishDay:       item.RecipePublishday.String(),
		Nickname:         item.Nickname.String(),
		Shop:             int(item.Shop),
		SourceCategoryID: categoryID,
	}, true
}

// normalizeRanking converts items in order, dropping records without an id.
func normalizeRanking(items []provider.RankingItem, categoryID string) []domain.Recipe {
	out := make([]domain.Recipe, 0, len(items))
	for _, item := range items {
		if r, ok := fromRankingItem(item, categoryID); ok {
			out = append(out, r)
		}
	}
	return out
}

// fromPage converts a scraped page to a Recipe, filling the fields a page
// does not carry with placeholders.
func fromPage(page *provider.RecipePage, recipeID string) domain.Recipe {
	materials := page.Ingredients
	if materials == nil {
		materials = []string{}
	}

	cookTime := page.TotalTime
	if cookTime == "" {
		cookTime = domain.Unspecified
	}

	return domain.Recipe{
		ID:               recipeID,
		Title:            page.Name,
		Description:      page.Description,
		Materials:        materials,
		Time:             cookTime,
		Cost:             domain.Unspecified,
		Rank:             domain.UnrankedRank,
		Pickup:           0,
		Image:            page.Image,
		URL:              page.URL,
		PublishDay:       domain.UnknownValue,
		Nickname:         domain.UnknownValue,
		Shop:             0,
		SourceCategoryID: domain.ManualCategoryID,
	}
}

func firstNonEmpty(vals ...provider.FlexString) *string {
	for _, v := range vals {
		if s := v.String(); s != "" {
			return &s
		}
	}
	return nil
}
