package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"stylist-service/internal/models"
	"stylist-service/internal/tags"
	"stylist-service/internal/util"

	"go.uber.org/zap"
)

// Cascade stage labels for metrics.
const (
	stageStrict   = "strict"
	stageRelaxed  = "relaxed"
	stageReingest = "reingest"
	stageFallback = "fallback"
)

// ProductQuerier reads filtered candidates from the catalog store.
type ProductQuerier interface {
	QueryProducts(ctx context.Context, filter models.Filter) ([]models.Product, error)
}

// Ranker orders candidates by relevance to a profile text.
type Ranker interface {
	Rank(ctx context.Context, profileText string, products []models.Product) ([]models.Product, error)
}

// Ingester re-ingests the catalog for the given brands.
type Ingester interface {
	Ingest(ctx context.Context, brands []string, query string) (int, error)
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	DefaultLimit int
	// ShuffleResults injects freshness across repeated calls by shuffling
	// after ranking, matching the historical behavior. Turning it off makes
	// the response strictly relevance-ordered.
	ShuffleResults bool
	RankTimeout    time.Duration
}

// RecommendRequest carries one recommendation query.
type RecommendRequest struct {
	Style     string
	Lifestyle string
	Budget    *float64
	Brands    []string
	Limit     int
}

// RecommendService runs the fallback cascade: strict filter, relaxed filter,
// re-ingest, then a synthetic placeholder. The result list is never empty.
type RecommendService struct {
	store    ProductQuerier
	ranker   Ranker
	ingester Ingester
	cfg      RecommendConfig
	logger   *zap.Logger
}

// NewRecommendService creates a new recommendation service
func NewRecommendService(store ProductQuerier, ranker Ranker, ingester Ingester, cfg RecommendConfig) *RecommendService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.RankTimeout <= 0 {
		cfg.RankTimeout = 10 * time.Second
	}
	return &RecommendService{
		store:    store,
		ranker:   ranker,
		ingester: ingester,
		cfg:      cfg,
		logger:   util.GetLogger(),
	}
}

// Recommend returns up to req.Limit products passing the request filters.
func (s *RecommendService) Recommend(ctx context.Context, req RecommendRequest) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "RecommendService.Recommend")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RecommendationLatency.Observe(time.Since(start).Seconds())
	}()
	util.RecommendationsServedTotal.Inc()

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	profileText := models.Profile{Style: req.Style, Lifestyle: req.Lifestyle}.Text()

	candidates, stage, err := s.gather(ctx, req, profileText)
	if err != nil {
		return nil, err
	}
	util.RecommendationStageTotal.WithLabelValues(stage).Inc()

	if stage == stageFallback {
		return candidates, nil
	}

	candidates = s.rank(ctx, profileText, candidates)

	if s.cfg.ShuffleResults {
		rand.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// gather walks the cascade in order and never skips a stage. It reports
// which stage produced the candidates.
func (s *RecommendService) gather(ctx context.Context, req RecommendRequest, profileText string) ([]models.Product, string, error) {
	strict := models.Filter{
		Retailers: req.Brands,
		Tags:      tags.Extract(profileText),
		Budget:    req.Budget,
	}
	candidates, err := s.store.QueryProducts(ctx, strict)
	if err != nil {
		return nil, "", fmt.Errorf("strict query failed: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, stageStrict, nil
	}

	// Relax tags and budget, keep the brand allowlist.
	relaxed := models.Filter{Retailers: req.Brands}
	candidates, err = s.store.QueryProducts(ctx, relaxed)
	if err != nil {
		return nil, "", fmt.Errorf("relaxed query failed: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, stageRelaxed, nil
	}

	// The store has nothing for these brands; pull fresh data once.
	if _, err := s.ingester.Ingest(ctx, req.Brands, ""); err != nil {
		s.logger.Warn("Reingest failed during recommendation", zap.Error(err))
	}
	candidates, err = s.store.QueryProducts(ctx, relaxed)
	if err != nil {
		return nil, "", fmt.Errorf("post-reingest query failed: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, stageReingest, nil
	}

	return []models.Product{models.PlaceholderProduct()}, stageFallback, nil
}

// rank orders candidates by similarity to the profile. Ranking is bounded by
// a timeout, and any failure degrades to the unranked candidate set rather
// than failing the request.
func (s *RecommendService) rank(ctx context.Context, profileText string, candidates []models.Product) []models.Product {
	if profileText == "" || len(candidates) < 2 {
		return candidates
	}

	rankCtx, cancel := context.WithTimeout(ctx, s.cfg.RankTimeout)
	defer cancel()

	ranked, err := s.ranker.Rank(rankCtx, profileText, candidates)
	if err != nil {
		util.RankingFailuresTotal.Inc()
		s.logger.Warn("Ranking unavailable, serving unranked results", zap.Error(err))
		return candidates
	}
	return ranked
}
