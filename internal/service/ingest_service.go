package service

import (
	"context"
	"sync"
	"time"

	"stylist-service/internal/adapters"
	"stylist-service/internal/models"
	"stylist-service/internal/util"

	"go.uber.org/zap"
)

const maxConcurrentSources = 4

// ProductWriter persists normalized products.
type ProductWriter interface {
	UpsertProduct(ctx context.Context, p *models.Product) error
}

// RefreshPublisher announces completed ingestion runs.
type RefreshPublisher interface {
	PublishCatalogRefreshed(ctx context.Context, sources []string, ingested, failed int) error
}

// IngestService drives the configured source adapters and writes their
// output through the catalog store. One source failing never blocks the
// others; failures are logged, counted, and skipped.
type IngestService struct {
	sources      []adapters.Source
	store        ProductWriter
	publisher    RefreshPublisher
	maxPerSource int
	logger       *zap.Logger
}

// NewIngestService creates a new ingest service. publisher may be nil when
// no broker is configured.
func NewIngestService(
	sources []adapters.Source,
	store ProductWriter,
	publisher RefreshPublisher,
	maxPerSource int,
) *IngestService {
	if maxPerSource <= 0 {
		maxPerSource = 20
	}
	return &IngestService{
		sources:      sources,
		store:        store,
		publisher:    publisher,
		maxPerSource: maxPerSource,
		logger:       util.GetLogger(),
	}
}

// Ingest fetches from every source whose name is in brands (all sources when
// brands is empty) and upserts the results. It returns the number of
// products written. Result ordering across sources is irrelevant; the
// recommendation pipeline shuffles downstream.
func (s *IngestService) Ingest(ctx context.Context, brands []string, query string) (int, error) {
	ctx, span := util.StartSpan(ctx, "IngestService.Ingest")
	defer span.End()

	start := time.Now()
	defer func() {
		util.IngestLatency.Observe(time.Since(start).Seconds())
	}()

	selected := s.selectSources(brands)
	if len(selected) == 0 {
		s.logger.Warn("No sources selected for ingest", zap.Strings("brands", brands))
		return 0, nil
	}

	var (
		mu       sync.Mutex
		ingested int
		failed   int
	)

	sem := make(chan struct{}, maxConcurrentSources)
	var wg sync.WaitGroup
	for _, src := range selected {
		wg.Add(1)
		go func(src adapters.Source) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			count, err := s.ingestSource(ctx, src, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				return
			}
			ingested += count
		}(src)
	}
	wg.Wait()

	names := make([]string, len(selected))
	for i, src := range selected {
		names[i] = src.Name()
	}

	s.logger.Info("Ingest completed",
		zap.Strings("sources", names),
		zap.Int("ingested", ingested),
		zap.Int("failed_sources", failed))

	if s.publisher != nil {
		if err := s.publisher.PublishCatalogRefreshed(ctx, names, ingested, failed); err != nil {
			s.logger.Error("Failed to publish CatalogRefreshed event", zap.Error(err))
		}
	}

	return ingested, nil
}

// ingestSource pulls one source and writes its products. The returned error
// marks the source as failed; it is never surfaced to callers of Ingest.
func (s *IngestService) ingestSource(ctx context.Context, src adapters.Source, query string) (int, error) {
	products, err := src.Fetch(ctx, query, s.maxPerSource)
	if err != nil {
		util.SourceFailuresTotal.WithLabelValues(src.Name()).Inc()
		s.logger.Warn("Source fetch failed, skipping",
			zap.String("source", src.Name()),
			zap.Error(err))
		return 0, err
	}

	count := 0
	for i := range products {
		if err := s.store.UpsertProduct(ctx, &products[i]); err != nil {
			s.logger.Error("Failed to upsert product",
				zap.String("source", src.Name()),
				zap.String("product_id", products[i].ID),
				zap.Error(err))
			continue
		}
		count++
	}

	util.ProductsIngestedTotal.WithLabelValues(src.Name()).Add(float64(count))
	return count, nil
}

func (s *IngestService) selectSources(brands []string) []adapters.Source {
	if len(brands) == 0 {
		return s.sources
	}

	wanted := make(map[string]bool, len(brands))
	for _, b := range brands {
		wanted[b] = true
	}

	var selected []adapters.Source
	for _, src := range s.sources {
		if wanted[src.Name()] {
			selected = append(selected, src)
		}
	}
	return selected
}
