package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"stylist-service/internal/models"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing catalog events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// PublishCatalogRefreshed publishes a CatalogRefreshed event after an
// ingestion run
func (ep *EventPublisher) PublishCatalogRefreshed(ctx context.Context, sources []string, ingested, failed int) error {
	event := &models.CatalogRefreshedEvent{
		BaseEvent: newBaseEvent(models.EventTypeCatalogRefreshed),
		Sources:   sources,
		Ingested:  ingested,
		Failed:    failed,
	}
	return ep.producer.PublishEvent(ctx, "catalog-refresh", event)
}

// PublishRefreshRequested asks the refresh worker to re-ingest the catalog
func (ep *EventPublisher) PublishRefreshRequested(ctx context.Context, brands []string) error {
	event := &models.RefreshRequestedEvent{
		BaseEvent: newBaseEvent(models.EventTypeRefreshRequested),
		Brands:    brands,
	}
	return ep.producer.PublishEvent(ctx, "catalog-refresh", event)
}

// EventHandler routes incoming catalog events
type EventHandler struct {
	onRefreshRequested func(context.Context, *models.RefreshRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnRefreshRequested registers a handler for RefreshRequested events
func (eh *EventHandler) OnRefreshRequested(handler func(context.Context, *models.RefreshRequestedEvent) error) {
	eh.onRefreshRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeRefreshRequested:
		if eh.onRefreshRequested != nil {
			var event models.RefreshRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal RefreshRequested event: %w", err)
			}
			return eh.onRefreshRequested(ctx, &event)
		}

	case models.EventTypeCatalogRefreshed:
		// Informational only; other consumers may care, the worker does not.

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
