package catalog

import (
	"strings"

	"github.com/heartmarshall/recipe-stock/internal/domain"
	"github.com/heartmarshall/recipe-stock/internal/provider"
)

const (
	pathSeparator = ">"
	idSeparator   = "-"
)

// Flatten turns the three-level category tree into addressable entries.
//
// Upstream ids are only unique within a level, so medium and small entries
// get composite ids built from their ancestors ("large-medium",
// "large-medium-small"). Output order is large, medium, small; the first
// entry for a composite id wins.
func Flatten(tree *provider.CategoryTree) []domain.CatalogEntry {
	if tree == nil {
		return []domain.CatalogEntry{}
	}

	largeByID := make(map[string]provider.CategoryNode, len(tree.Large))
	for _, c := range tree.Large {
		if id := c.CategoryID.String(); id != "" {
			if _, ok := largeByID[id]; !ok {
				largeByID[id] = c
			}
		}
	}
	mediumByID := make(map[string]provider.CategoryNode, len(tree.Medium))
	for _, c := range tree.Medium {
		if id := c.CategoryID.String(); id != "" {
			if _, ok := mediumByID[id]; !ok {
				mediumByID[id] = c
			}
		}
	}

	out := make([]domain.CatalogEntry, 0, len(tree.Large)+len(tree.Medium)+len(tree.Small))
	seen := make(map[string]struct{})
	add := func(e domain.CatalogEntry) {
		if _, dup := seen[e.ID]; dup {
			return
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}

	for _, c := range tree.Large {
		id, name := c.CategoryID.String(), c.CategoryName.String()
		if id == "" || name == "" {
			continue
		}
		add(domain.CatalogEntry{
			ID:    id,
			Name:  name,
			Path:  name,
			Level: domain.CategoryLarge,
		})
	}

	for _, c := range tree.Medium {
		id, name, parent := c.CategoryID.String(), c.CategoryName.String(), c.ParentCategoryID.String()
		if id == "" || name == "" || parent == "" {
			continue
		}

		path := name
		if largeName := largeByID[parent].CategoryName.String(); largeName != "" {
			path = joinPath(largeName, name)
		}

		add(domain.CatalogEntry{
			ID:        joinID(parent, id),
			DisplayID: id,
			Name:      name,
			Path:      path,
			Level:     domain.CategoryMedium,
		})
	}

	for _, c := range tree.Small {
		id, name, parent := c.CategoryID.String(), c.CategoryName.String(), c.ParentCategoryID.String()
		if id == "" || name == "" || parent == "" {
			continue
		}

		medium, ok := mediumByID[parent]
		largeID := medium.ParentCategoryID.String()
		if !ok || largeID == "" {
			continue
		}

		mediumName := medium.CategoryName.String()
		largeName := largeByID[largeID].CategoryName.String()

		var path string
		switch {
		case largeName != "" && mediumName != "":
			path = joinPath(largeName, mediumName, name)
		case mediumName != "":
			path = joinPath(mediumName, name)
		default:
			path = name
		}

		add(domain.CatalogEntry{
			ID:        joinID(largeID, parent, id),
			DisplayID: id,
			Name:      name,
			Path:      path,
			Level:     domain.CategorySmall,
		})
	}

	return out
}

func joinPath(parts ...string) string { return strings.Join(parts, pathSeparator) }

func joinID(parts ...string) string { return strings.Join(parts, idSeparator) }
