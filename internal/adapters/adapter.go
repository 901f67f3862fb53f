package adapters

// Package adapters normalizes external catalog payloads into the common
// Product schema. Each adapter is a pure mapping over one source's native
// shape with documented defaulting rules; failures are returned to the
// ingestion layer, which skips the source and carries on.

import (
	"context"

	"stylist-service/internal/models"
)

// Source fetches up to max products matching an optional query text. An
// empty query means "whatever the source considers its catalog".
type Source interface {
	Name() string
	Fetch(ctx context.Context, query string, max int) ([]models.Product, error)
}
