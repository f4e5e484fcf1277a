package catalog

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/heartmarshall/recipe-stock/internal/domain"
)

const (
	wholeQueryScore = 5
	tokenScore      = 2
)

// Suggest scores entries against a free-text query and returns the best
// matches. An entry gains wholeQueryScore if the lower-cased query is a
// substring of lower(name + " " + path), and tokenScore per matching token.
// Zero-score entries are dropped. Results are ordered by score descending,
// then by shorter path; remaining ties keep catalog order.
func Suggest(entries []domain.CatalogEntry, query string, limit int) []domain.ScoredEntry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || limit <= 0 {
		return []domain.ScoredEntry{}
	}

	tokens := Tokenize(q)

	scored := make([]domain.ScoredEntry, 0)
	for _, e := range entries {
		text := strings.ToLower(e.Name + " " + e.Path)

		score := 0
		if strings.Contains(text, q) {
			score += wholeQueryScore
		}
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				score += tokenScore
			}
		}
		if score > 0 {
			scored = append(scored, domain.ScoredEntry{CatalogEntry: e, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return utf8.RuneCountInString(scored[i].Path) < utf8.RuneCountInString(scored[j].Path)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Tokenize splits a query on whitespace (including U+3000) and the
// separators , 、 / ・, lower-cases the parts and drops empty ones.
func Tokenize(query string) []string {
	parts := strings.FieldsFunc(query, isSeparator)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	switch r {
	case ',', '、', '/', '・':
		return true
	}
	return unicode.IsSpace(r)
}
