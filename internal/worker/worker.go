package worker

import (
	"context"
	"log"
	"time"

	"stylist-service/internal/broker"
	"stylist-service/internal/models"
)

// Ingester re-ingests the catalog for the given brands.
type Ingester interface {
	Ingest(ctx context.Context, brands []string, query string) (int, error)
}

// RefreshWorker consumes refresh-request events and re-ingests the catalog
type RefreshWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(consumer *broker.Consumer, ingester Ingester) *RefreshWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnRefreshRequested(func(ctx context.Context, event *models.RefreshRequestedEvent) error {
		count, err := ingester.Ingest(ctx, event.Brands, "")
		if err != nil {
			return err
		}
		log.Printf("Refresh request %s ingested %d products", event.EventID, count)
		return nil
	})

	return &RefreshWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker
func (w *RefreshWorker) Start(ctx context.Context) error {
	log.Println("Starting refresh worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RefreshWorker) Stop() error {
	log.Println("Stopping refresh worker...")
	return w.consumer.Close()
}

// PeriodicRefresher re-ingests every configured source on a fixed interval,
// keeping the catalog warm without an operator in the loop.
type PeriodicRefresher struct {
	ingester Ingester
	interval time.Duration
}

// NewPeriodicRefresher creates a periodic refresher. A non-positive interval
// disables it.
func NewPeriodicRefresher(ingester Ingester, interval time.Duration) *PeriodicRefresher {
	return &PeriodicRefresher{
		ingester: ingester,
		interval: interval,
	}
}

// Start blocks until the context is cancelled, refreshing on each tick.
func (r *PeriodicRefresher) Start(ctx context.Context) error {
	if r.interval <= 0 {
		log.Println("Periodic refresh disabled")
		return nil
	}

	log.Printf("Starting periodic refresher: interval=%s", r.interval)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Periodic refresher stopping...")
			return ctx.Err()
		case <-ticker.C:
			count, err := r.ingester.Ingest(ctx, nil, "")
			if err != nil {
				log.Printf("Periodic refresh error: %v", err)
				continue
			}
			log.Printf("Periodic refresh ingested %d products", count)
		}
	}
}
