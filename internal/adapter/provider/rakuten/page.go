package rakuten

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/heartmarshall/recipe-stock/internal/provider"
)

const ldJSONType = "application/ld+json"

// RecipePageURL returns the public page URL of a recipe.
func (c *Client) RecipePageURL(recipeID string) string {
	return strings.TrimRight(c.cfg.RecipePageURL, "/") + "/" + url.PathEscape(recipeID) + "/"
}

// FetchRecipePage scrapes the structured data of a public recipe page.
// Returns nil, nil if the page does not exist (HTTP 404) or carries no
// ld+json block typed Recipe.
func (c *Client) FetchRecipePage(ctx context.Context, recipeID string) (*provider.RecipePage, error) {
	pageURL := c.RecipePageURL(recipeID)

	start := time.Now()
	defer func() { c.metrics.UpstreamDuration(endpointRecipePage, time.Since(start).Seconds()) }()

	var page *provider.RecipePage
	err := c.retrier.Do(ctx, endpointRecipePage, func(ctx context.Context) error {
		body, status, err := c.get(ctx, pageURL, "text/html")
		if err != nil {
			c.metrics.UpstreamAttempt(endpointRecipePage, "retry")
			return err
		}
		if status == http.StatusNotFound {
			c.metrics.UpstreamAttempt(endpointRecipePage, "ok")
			page = nil
			return nil
		}
		if status < 200 || status > 299 {
			c.metrics.UpstreamAttempt(endpointRecipePage, "retry")
			return &statusError{Code: status}
		}

		page, err = parseRecipePage(body)
		if err != nil {
			c.metrics.UpstreamAttempt(endpointRecipePage, "retry")
			return err
		}
		c.metrics.UpstreamAttempt(endpointRecipePage, "ok")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rakuten: fetch recipe page %s: %w", recipeID, err)
	}

	if page == nil {
		c.log.DebugContext(ctx, "recipe page has no recipe data", slog.String("recipe_id", recipeID))
		return nil, nil
	}

	page.RecipeID = recipeID
	page.URL = pageURL
	return page, nil
}

// parseRecipePage returns the first Recipe object found in the page's
// ld+json blocks, or nil. Blocks that are not valid JSON are ignored.
func parseRecipePage(body []byte) (*provider.RecipePage, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	for _, block := range ldJSONBlocks(doc) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		var data any
		if err := json.Unmarshal([]byte(block), &data); err != nil {
			continue
		}

		candidates, ok := data.([]any)
		if !ok {
			candidates = []any{data}
		}
		for _, c := range candidates {
			obj, ok := c.(map[string]any)
			if !ok || !isRecipeType(obj) {
				continue
			}
			return recipeFromLD(obj), nil
		}
	}

	return nil, nil
}

// ldJSONBlocks collects the text of every <script type="application/ld+json">.
func ldJSONBlocks(n *html.Node) []string {
	var blocks []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Script && hasLDJSONType(n) {
			var sb strings.Builder
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.TextNode {
					sb.WriteString(child.Data)
				}
			}
			blocks = append(blocks, sb.String())
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return blocks
}

func hasLDJSONType(n *html.Node) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "type") && strings.EqualFold(strings.TrimSpace(a.Val), ldJSONType) {
			return true
		}
	}
	return false
}

// isRecipeType reports whether @type is "Recipe" or a list containing it.
func isRecipeType(obj map[string]any) bool {
	t, ok := obj["@type"]
	if !ok || t == nil || t == "" {
		t = obj["@TYPE"]
	}
	switch v := t.(type) {
	case string:
		return v == "Recipe"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Recipe" {
				return true
			}
		}
	}
	return false
}

func recipeFromLD(obj map[string]any) *provider.RecipePage {
	page := &provider.RecipePage{
		Name:        stringField(obj, "name"),
		Description: stringField(obj, "description"),
		TotalTime:   stringField(obj, "totalTime"),
		Ingredients: []string{},
	}

	if list, ok := obj["recipeIngredient"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				page.Ingredients = append(page.Ingredients, s)
			} else if item != nil {
				page.Ingredients = append(page.Ingredients, fmt.Sprint(item))
			}
		}
	}

	img := obj["image"]
	if list, ok := img.([]any); ok {
		img = nil
		if len(list) > 0 {
			img = list[0]
		}
	}
	if s := imageURL(img); s != "" {
		page.Image = &s
	}

	return page
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// imageURL accepts a plain URL string or an ImageObject with a url member.
func imageURL(v any) string {
	switch img := v.(type) {
	case string:
		return img
	case map[string]any:
		return stringField(img, "url")
	}
	return ""
}
