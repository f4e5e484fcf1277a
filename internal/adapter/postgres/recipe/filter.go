package recipe

import (
	"strings"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const maxLimit = 500

// normalizeFilter lower-cases the query and clamps paging values.
func normalizeFilter(f domain.RecipeFilter) domain.RecipeFilter {
	f.Query = strings.ToLower(strings.TrimSpace(f.Query))
	if f.Limit < 0 {
		f.Limit = 0
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
