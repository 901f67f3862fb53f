package models

import "time"

// Event types
const (
	EventTypeCatalogRefreshed = "CATALOG_REFRESHED"
	EventTypeRefreshRequested = "REFRESH_REQUESTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogRefreshedEvent published after an ingestion run completes
type CatalogRefreshedEvent struct {
	BaseEvent
	Sources  []string `json:"sources"`
	Ingested int      `json:"ingested"`
	Failed   int      `json:"failed_sources"`
}

// RefreshRequestedEvent asks the refresh worker to re-ingest the catalog.
// An empty brand list means all configured sources.
type RefreshRequestedEvent struct {
	BaseEvent
	Brands []string `json:"brands"`
}
