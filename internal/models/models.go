package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

const (
	// PlaceholderImageURL is served when a source item carries no usable image.
	PlaceholderImageURL = "https://via.placeholder.com/300x400?text=No+Image"

	// PlaceholderResultImageURL is the image on the synthetic fallback record.
	PlaceholderResultImageURL = "https://via.placeholder.com/300x400?text=No+Products"

	// UnresolvableLink marks a product whose canonical URL could not be built.
	UnresolvableLink = "#"

	productIDLength = 24
)

// Product is one normalized catalog item. Rows are keyed by the
// content-derived ID so re-ingesting the same item collapses to one record.
type Product struct {
	ID           string         `db:"id" json:"id"`
	Title        string         `db:"title" json:"title"`
	Brand        string         `db:"brand" json:"brand"`
	PriceDisplay string         `db:"price_display" json:"price"`
	PriceNumeric *float64       `db:"price_numeric" json:"price_numeric,omitempty"`
	Link         string         `db:"link" json:"link"`
	ImageURL     string         `db:"image_url" json:"image_url"`
	Tags         pq.StringArray `db:"tags" json:"tags"`
	Retailer     string         `db:"retailer" json:"retailer"`
	Raw          types.JSONText `db:"raw" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// PlaceholderProduct is the synthetic record returned when every stage of the
// fallback cascade comes up empty. The recommend contract never returns an
// empty result list.
func PlaceholderProduct() Product {
	return Product{
		ID:       ProductID("", "No products found", ""),
		Title:    "No products found",
		Link:     UnresolvableLink,
		ImageURL: PlaceholderResultImageURL,
	}
}

// ProductID derives the dedup key for a product. The link is the preferred
// identity; items without a resolvable link fall back to title and brand.
func ProductID(link, title, brand string) string {
	basis := link
	if basis == "" || basis == UnresolvableLink {
		basis = title + "|" + brand
	}
	sum := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(sum[:])[:productIDLength]
}

// ParsePrice extracts a numeric price from a source-native display string
// such as "$129.99" or "EUR 45". It returns nil when no usable number is
// present; an unknown price never aborts ingestion.
func ParsePrice(display string) *float64 {
	var b strings.Builder
	for _, r := range display {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

// Filter narrows a catalog query. Empty retailer and tag sets match
// everything; a nil budget disables the price ceiling. Filters are built per
// request and never mutated.
type Filter struct {
	Retailers []string
	Tags      []string
	Budget    *float64
}

// Matches reports whether a product passes the filter. A product with an
// unknown numeric price passes any budget: we never hide an item just because
// its price string was unparsable.
func (f Filter) Matches(p Product) bool {
	if len(f.Retailers) > 0 && !containsFold(f.Retailers, p.Retailer) {
		return false
	}
	if len(f.Tags) > 0 && !intersectsFold(f.Tags, p.Tags) {
		return false
	}
	if f.Budget != nil && p.PriceNumeric != nil && *p.PriceNumeric > *f.Budget {
		return false
	}
	return true
}

func containsFold(set []string, s string) bool {
	for _, v := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func intersectsFold(a, b []string) bool {
	for _, v := range a {
		if containsFold(b, v) {
			return true
		}
	}
	return false
}

// Profile is the free-text style description used to build the embedding
// query. It is never persisted.
type Profile struct {
	Style     string `json:"style"`
	Lifestyle string `json:"lifestyle"`
}

// Text joins the non-empty profile parts into a single query string.
func (p Profile) Text() string {
	parts := make([]string, 0, 2)
	if p.Style != "" {
		parts = append(parts, p.Style)
	}
	if p.Lifestyle != "" {
		parts = append(parts, p.Lifestyle)
	}
	return strings.Join(parts, " ")
}
