package main

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/service/ingest"
)

// stockExport is the on-disk layout of a recipe stock file.
type stockExport struct {
	Meta    stockMeta      `json:"meta"`
	Recipes []recipeExport `json:"recipes"`
}

type stockMeta struct {
	TargetCount      int        `json:"targetCount"`
	ActualCount      int        `json:"actualCount"`
	Stats            stockStats `json:"stats"`
	GeneratedAtEpoch int64      `json:"generatedAtEpoch"`
}

type stockStats struct {
	RequestedCategories int `json:"requestedCategories"`
	FetchedItems        int `json:"fetchedItems"`
	Deduped             int `json:"deduped"`
}

type recipeExport struct {
	// RecipeID is a JSON number when the id is numeric, a string otherwise.
	RecipeID         any      `json:"recipeId"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Materials        []string `json:"materials"`
	Time             string   `json:"time"`
	Cost             string   `json:"cost"`
	Rank             string   `json:"rank"`
	Pickup           int      `json:"pickup"`
	Image            *string  `json:"image"`
	URL              string   `json:"url"`
	PublishDay       string   `json:"publishDay"`
	Nickname         string   `json:"nickname"`
	Shop             int      `json:"shop"`
	SourceCategoryID string   `json:"sourceCategoryId"`
}

func toStockExport(s *ingest.Stock) stockExport {
	recipes := make([]recipeExport, 0, len(s.Recipes))
	for _, r := range s.Recipes {
		recipes = append(recipes, toRecipeExport(r))
	}
	return stockExport{
		Meta: stockMeta{
			TargetCount: s.TargetCount,
			ActualCount: len(recipes),
			Stats: stockStats{
				RequestedCategories: s.Stats.RequestedCategories,
				FetchedItems:        s.Stats.FetchedItems,
				Deduped:             s.Stats.Deduped,
			},
			GeneratedAtEpoch: s.GeneratedAt.Unix(),
		},
		Recipes: recipes,
	}
}

func toRecipeExport(r domain.Recipe) recipeExport {
	var id any = r.ID
	if n, err := strconv.ParseInt(r.ID, 10, 64); err == nil {
		id = n
	}
	materials := r.Materials
	if materials == nil {
		materials = []string{}
	}
	return recipeExport{
		RecipeID:         id,
		Title:            r.Title,
		Description:      r.Description,
		Materials:        materials,
		Time:             r.Time,
		Cost:             r.Cost,
		Rank:             r.Rank,
		Pickup:           r.Pickup,
		Image:            r.Image,
		URL:              r.URL,
		PublishDay:       r.PublishDay,
		Nickname:         r.Nickname,
		Shop:             r.Shop,
		SourceCategoryID: r.SourceCategoryID,
	}
}

// encodeStock writes the export as indented JSON with non-ASCII text kept
// verbatim.
func encodeStock(w io.Writer, export stockExport) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}
