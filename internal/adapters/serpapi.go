package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stylist-service/internal/models"
	"stylist-service/internal/tags"

	"golang.org/x/time/rate"
)

const defaultSearchQuery = "clothing"

// SerpAPIAdapter issues scoped google_shopping queries against a product
// search service and maps each hit into a Product.
type SerpAPIAdapter struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	domain     string
	limiter    *rate.Limiter
}

// NewSerpAPIAdapter creates a search-query adapter scoped to one retailer
// domain. The limiter is shared across adapters hitting the same search
// service account.
func NewSerpAPIAdapter(baseURL, apiKey, domain string, limiter *rate.Limiter) *SerpAPIAdapter {
	return &SerpAPIAdapter{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		domain:  domain,
		limiter: limiter,
	}
}

func (a *SerpAPIAdapter) Name() string {
	return a.domain
}

type serpAPIResponse struct {
	ShoppingResults []json.RawMessage `json:"shopping_results"`
}

type serpAPIItem struct {
	Title       string   `json:"title"`
	Source      string   `json:"source"`
	Price       string   `json:"price"`
	Thumbnail   string   `json:"thumbnail"`
	Images      []string `json:"images"`
	ProductLink string   `json:"product_link"`
	Link        string   `json:"link"`
}

func (a *SerpAPIAdapter) Fetch(ctx context.Context, query string, max int) ([]models.Product, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}
	}

	if query == "" {
		query = defaultSearchQuery
	}

	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", fmt.Sprintf("site:%s %s", a.domain, query))
	params.Set("api_key", a.apiKey)
	params.Set("num", strconv.Itoa(max))

	reqURL := fmt.Sprintf("%s/search.json?%s", a.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serpAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	products := make([]models.Product, 0, len(parsed.ShoppingResults))
	for _, raw := range parsed.ShoppingResults {
		var item serpAPIItem
		if err := json.Unmarshal(raw, &item); err != nil {
			continue
		}
		products = append(products, a.mapItem(item, raw))
		if len(products) == max {
			break
		}
	}
	return products, nil
}

// mapItem applies the defaulting rules: untitled hits get a stub title,
// product_link wins over link, protocol-relative images get https, and a
// missing image falls back to the placeholder.
func (a *SerpAPIAdapter) mapItem(item serpAPIItem, raw json.RawMessage) models.Product {
	title := item.Title
	if title == "" {
		title = "Untitled Product"
	}

	link := item.ProductLink
	if link == "" {
		link = item.Link
	}
	if link == "" {
		link = models.UnresolvableLink
	}

	image := item.Thumbnail
	if image == "" && len(item.Images) > 0 {
		image = item.Images[0]
	}
	if strings.HasPrefix(image, "//") {
		image = "https:" + image
	}
	if image == "" {
		image = models.PlaceholderImageURL
	}

	return models.Product{
		ID:           models.ProductID(link, title, item.Source),
		Title:        title,
		Brand:        item.Source,
		PriceDisplay: item.Price,
		PriceNumeric: models.ParsePrice(item.Price),
		Link:         link,
		ImageURL:     image,
		Tags:         tags.Extract(title),
		Retailer:     a.domain,
		Raw:          []byte(raw),
	}
}
