package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/infrastructure/usda"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// ProviderResult is a possibly partial record from one nutrition source.
type ProviderResult struct {
	Record     domain.NutrientRecord
	Provenance domain.Provenance
	SourceID   string
}

// Provider is one ranked source in the resolver pipeline.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, ingredientName string) (*ProviderResult, error)
}

// USDAProvider looks ingredients up in FoodData Central: search, first hit, detail, map.
type USDAProvider struct {
	client       domain.USDAClient
	cache        domain.CacheRepository
	cacheTTL     time.Duration
	preprocessor *QueryPreprocessor
	log          *logger.Logger
}

func NewUSDAProvider(client domain.USDAClient, cache domain.CacheRepository, cacheTTL time.Duration, log *logger.Logger) *USDAProvider {
	if cacheTTL <= 0 {
		cacheTTL = 720 * time.Hour
	}
	return &USDAProvider{
		client:       client,
		cache:        cache,
		cacheTTL:     cacheTTL,
		preprocessor: NewQueryPreprocessor(log),
		log:          log.With("service", "USDAProvider"),
	}
}

func (p *USDAProvider) Name() string { return "usda" }

type cachedLookup struct {
	FdcID     int                   `json:"fdcId"`
	Nutrients domain.NutrientRecord `json:"nutrients"`
}

func (p *USDAProvider) Lookup(ctx context.Context, ingredientName string) (*ProviderResult, error) {
	query := p.preprocessor.Preprocess(ingredientName)
	if query == "" {
		return nil, fmt.Errorf("%w: empty ingredient name", domain.ErrInvalidRequest)
	}
	cacheKey := "usda:" + normalizeForCacheKey(query)

	if hit, ok := p.fromCache(ctx, cacheKey); ok {
		p.log.Debug("USDA cache hit", "query", query, "fdc_id", hit.FdcID)
		return toProviderResult(hit), nil
	}

	search, err := p.client.SearchFoods(ctx, query)
	if err != nil {
		return nil, err
	}
	best := search.Foods[0]

	detail, err := p.client.GetFoodDetails(ctx, best.FdcID)
	if err != nil {
		return nil, err
	}

	lookup := cachedLookup{FdcID: detail.FdcID, Nutrients: usda.MapNutrients(detail.Nutrients)}
	p.toCache(ctx, cacheKey, lookup)

	p.log.Info("USDA match", "query", query, "fdc_id", lookup.FdcID, "description", best.Description, "fields", len(lookup.Nutrients))
	return toProviderResult(lookup), nil
}

func toProviderResult(l cachedLookup) *ProviderResult {
	return &ProviderResult{
		Record:     l.Nutrients,
		Provenance: domain.ProvenanceStructured,
		SourceID:   strconv.Itoa(l.FdcID),
	}
}

func (p *USDAProvider) fromCache(ctx context.Context, key string) (cachedLookup, bool) {
	var out cachedLookup
	if p.cache == nil {
		return out, false
	}
	raw, err := p.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			p.log.Warn("cache read failed", "key", key, "error", err)
		}
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		p.log.Warn("dropping undecodable cache entry", "key", key, "error", err)
		_ = p.cache.Delete(ctx, key)
		return out, false
	}
	return out, true
}

func (p *USDAProvider) toCache(ctx context.Context, key string, l cachedLookup) {
	if p.cache == nil {
		return
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, key, raw, p.cacheTTL); err != nil {
		p.log.Warn("cache write failed", "key", key, "error", err)
	}
}

// GenerativeProvider asks a generative model for a full estimate.
type GenerativeProvider struct {
	estimator domain.NutrientEstimator
}

func NewGenerativeProvider(estimator domain.NutrientEstimator) *GenerativeProvider {
	return &GenerativeProvider{estimator: estimator}
}

func (p *GenerativeProvider) Name() string { return "generative" }

func (p *GenerativeProvider) Lookup(ctx context.Context, ingredientName string) (*ProviderResult, error) {
	record, err := p.estimator.EstimateNutrients(ctx, ingredientName)
	if err != nil {
		return nil, err
	}
	return &ProviderResult{Record: record, Provenance: domain.ProvenanceGenerative}, nil
}
