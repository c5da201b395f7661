package shopping

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/revibe-studio/revibe/internal/models"
	"github.com/revibe-studio/revibe/internal/session"
)

// listPage is the static HTML shopping list written alongside the JSON
// artifact. Kept deliberately simple: one card per product with the
// public metadata a shopper needs.
var listPage = template.Must(template.New("shopping_list").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Shopping List - {{.Style}}</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 2em auto; color: #333; }
.product { border: 1px solid #ddd; border-radius: 8px; padding: 1em; margin-bottom: 1em; }
.product h3 { margin: 0 0 0.3em; }
.meta { color: #666; font-size: 0.9em; }
.price { font-weight: bold; color: #1a7f37; }
</style>
</head>
<body>
<h1>Shopping List</h1>
<p class="meta">Style: {{.Style}} · Generated {{.GeneratedAt}} · {{len .Products}} products</p>
{{range .Products}}<div class="product">
<h3>{{.Name}}</h3>
<p class="meta">{{.ProductType}}{{if .Area}} · {{.Area}}{{end}} · {{.Retailer}}{{if .Rating}} · ★ {{.Rating}}{{end}}</p>
{{if .Price}}<p class="price">{{.Price}}</p>{{end}}
<p><a href="{{.URL}}">View product</a></p>
</div>
{{end}}</body>
</html>
`))

// listEntry carries display-ready strings; prices and ratings are
// formatted in Go rather than in the template.
type listEntry struct {
	Name        string
	ProductType string
	Area        string
	Retailer    string
	URL         string
	Price       string
	Rating      string
}

// WriteList persists the final shopping list as JSON and HTML into the
// session shopping_lists directory, returning the JSON artifact path.
func WriteList(sess *session.Session, style string, products []models.ProductCandidate) (string, error) {
	// Shopping-list entries reference the session-relative image path
	// rather than the absolute cache location.
	type jsonEntry struct {
		models.ProductCandidate
		ImagePath string `json:"image_ref"`
	}
	entries := make([]jsonEntry, len(products))
	for i, p := range products {
		entries[i] = jsonEntry{ProductCandidate: p, ImagePath: sessionRelative(sess, p.ImagePath)}
	}

	data, err := json.MarshalIndent(map[string]any{
		"session_id":   sess.ID,
		"style":        style,
		"generated_at": time.Now().Format(time.RFC3339),
		"products":     entries,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	jsonPath, err := sess.Store(session.CategoryShoppingLists, "shopping_list.json", data)
	if err != nil {
		return "", err
	}

	page := struct {
		Style       string
		GeneratedAt string
		Products    []listEntry
	}{
		Style:       style,
		GeneratedAt: time.Now().Format("2006-01-02 15:04"),
	}
	for _, p := range products {
		entry := listEntry{
			Name:        p.Name,
			ProductType: p.ProductType,
			Area:        p.Area,
			Retailer:    p.Retailer,
			URL:         p.URL,
		}
		if p.Price != nil {
			entry.Price = fmt.Sprintf("$%.2f", *p.Price)
		}
		if p.Rating != nil {
			entry.Rating = fmt.Sprintf("%.1f", *p.Rating)
			if p.Reviews != nil {
				entry.Rating += fmt.Sprintf(" (%d reviews)", *p.Reviews)
			}
		}
		page.Products = append(page.Products, entry)
	}

	var sb strings.Builder
	if err := listPage.Execute(&sb, page); err != nil {
		return "", fmt.Errorf("failed to render shopping list page: %w", err)
	}
	if _, err := sess.Store(session.CategoryShoppingLists, "shopping_list.html", []byte(sb.String())); err != nil {
		return "", err
	}

	return jsonPath, nil
}

func sessionRelative(sess *session.Session, path string) string {
	if rel, err := filepath.Rel(sess.Root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
