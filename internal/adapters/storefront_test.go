package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stylist-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storefrontFixture = `{
	"products": [
		{
			"title": "Maxi Dress",
			"handle": "maxi-dress",
			"vendor": "Everlane",
			"variants": [{"price": "80.00"}, {"price": "95.00"}],
			"images": [{"src": "https://cdn.example.com/maxi.jpg"}]
		},
		{
			"title": "Mystery Item Without Handle",
			"vendor": "Everlane",
			"variants": [{"price": "10.00"}]
		},
		{
			"title": "Plain Tee",
			"handle": "plain-tee",
			"vendor": "Everlane",
			"variants": [],
			"images": []
		}
	]
}`

func TestStorefrontFetchMapsFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			w.Write([]byte(storefrontFixture))
			return
		}
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	adapter := NewStorefrontAdapter(server.URL, "everlane.com")
	products, err := adapter.Fetch(context.Background(), "", 20)
	require.NoError(t, err)
	require.Len(t, products, 2, "item without handle is skipped")

	dress := products[0]
	assert.Equal(t, "Maxi Dress", dress.Title)
	assert.Equal(t, "Everlane", dress.Brand)
	assert.Equal(t, "https://everlane.com/products/maxi-dress", dress.Link)
	assert.Equal(t, "80.00", dress.PriceDisplay, "first variant price wins")
	require.NotNil(t, dress.PriceNumeric)
	assert.InDelta(t, 80.0, *dress.PriceNumeric, 0.001)
	assert.Equal(t, "https://cdn.example.com/maxi.jpg", dress.ImageURL)
	assert.Equal(t, []string{"maxi", "dress"}, []string(dress.Tags))
	assert.Equal(t, "everlane.com", dress.Retailer)

	tee := products[1]
	assert.Equal(t, "", tee.PriceDisplay)
	assert.Nil(t, tee.PriceNumeric)
	assert.Equal(t, models.PlaceholderImageURL, tee.ImageURL)
}

func TestStorefrontFetchPaginatesUntilMax(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "1" || page == "2" {
			fmt.Fprintf(w, `{"products": [
				{"title": "Item %s", "handle": "item-%s", "vendor": "Shop",
				 "variants": [{"price": "5.00"}], "images": []}
			]}`, page, page)
			return
		}
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	adapter := NewStorefrontAdapter(server.URL, "shop.example.com")
	products, err := adapter.Fetch(context.Background(), "", 10)
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "https://shop.example.com/products/item-1", products[0].Link)
	assert.Equal(t, "https://shop.example.com/products/item-2", products[1].Link)
}

func TestStorefrontFetchStopsAtMax(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(storefrontFixture))
	}))
	defer server.Close()

	adapter := NewStorefrontAdapter(server.URL, "everlane.com")
	products, err := adapter.Fetch(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Len(t, products, 1)
}

func TestStorefrontFetchReturnsErrorOnServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	adapter := NewStorefrontAdapter(server.URL, "everlane.com")
	_, err := adapter.Fetch(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}
