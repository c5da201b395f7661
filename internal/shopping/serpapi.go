// Package shopping implements the product-search stage: SerpAPI Google
// Shopping queries, candidate image downloads, and the bounded-worker
// search engine with its early-exit policy.
package shopping

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SearchResult is one ranked product returned by the search service,
// before its image has been downloaded.
type SearchResult struct {
	Name     string
	URL      string
	Price    *float64
	Rating   *float64
	Reviews  *int
	ImageURL string
	Retailer string
}

// Searcher is the external product-search contract. The concrete
// implementation talks to SerpAPI; tests substitute a fake.
type Searcher interface {
	SearchProducts(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// Client queries the SerpAPI Google Shopping engine.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type serpResponse struct {
	ShoppingResults []struct {
		Title       string   `json:"title"`
		ProductLink string   `json:"product_link"`
		Price       string   `json:"price"`
		Rating      *float64 `json:"rating"`
		Reviews     *int     `json:"reviews"`
		Thumbnail   string   `json:"thumbnail"`
		Source      string   `json:"source"`
	} `json:"shopping_results"`
}

// SearchProducts returns up to maxResults ranked candidates for a query.
func (c *Client) SearchProducts(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("SERPAPI_KEY environment variable not set")
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(maxResults))
	params.Set("gl", "us")
	params.Set("hl", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query search service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned status %d", resp.StatusCode)
	}

	var body serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]SearchResult, 0, len(body.ShoppingResults))
	for _, item := range body.ShoppingResults {
		// Items without a title or product page cannot appear on a
		// shopping list.
		if item.Title == "" || item.ProductLink == "" {
			continue
		}
		retailer := item.Source
		if retailer == "" {
			retailer = "Unknown"
		}
		results = append(results, SearchResult{
			Name:     item.Title,
			URL:      item.ProductLink,
			Price:    ParsePrice(item.Price),
			Rating:   item.Rating,
			Reviews:  item.Reviews,
			ImageURL: item.Thumbnail,
			Retailer: retailer,
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

// ParsePrice converts a display price like "$1,249.99" to a number.
// Unparseable prices yield nil rather than a zero value.
func ParsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}

// queryEnhancements adds product-specific search terms that improve
// shopping-result relevance for common interior product types.
var queryEnhancements = map[string]string{
	"throw pillows": "decorative cushions",
	"floor lamp":    "lighting fixture",
	"wall art":      "wall hanging decor",
	"ceramic vases": "pottery decorative",
	"area rug":      "decorative carpet",
	"curtains":      "window treatments",
	"candles":       "decorative candles",
	"plants":        "indoor plants",
	"throw blanket": "textile decorative",
}

// BuildQuery assembles the shopping query for one product type from the
// design style and up to two palette colors.
func BuildQuery(productType, style string, colors []string) string {
	parts := []string{}
	if style != "" {
		parts = append(parts, style)
	}
	parts = append(parts, productType)
	if len(colors) > 2 {
		colors = colors[:2]
	}
	parts = append(parts, colors...)
	if enhancement, ok := queryEnhancements[strings.ToLower(productType)]; ok {
		parts = append(parts, enhancement)
	}
	return strings.Join(parts, " ")
}
