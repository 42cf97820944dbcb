package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// NutritionResolver runs providers in rank order until the merged record is complete.
// Earlier providers win every field they supply; later ones only fill gaps.
type NutritionResolver struct {
	providers []Provider
	log       *logger.Logger
}

func NewNutritionResolver(log *logger.Logger, providers ...Provider) *NutritionResolver {
	return &NutritionResolver{providers: providers, log: log.With("service", "NutritionResolver")}
}

// Resolve returns a complete record for ingredientName. Provenance is that of the
// provider whose contribution completed the record. Configuration errors abort
// immediately; other provider failures fall through to the next provider.
func (r *NutritionResolver) Resolve(ctx context.Context, ingredientName string) (*ProviderResult, error) {
	merged := domain.NutrientRecord{}
	var sourceID string
	var lastErr error

	for _, p := range r.providers {
		res, err := p.Lookup(ctx, ingredientName)
		if err != nil {
			if errors.Is(err, domain.ErrConfiguration) {
				return nil, err
			}
			r.log.Warn("provider failed", "provider", p.Name(), "ingredient", ingredientName, "kind", domain.ErrorKind(err), "error", err)
			lastErr = err
			continue
		}

		merged = merged.FillMissing(res.Record.Sanitize())
		if sourceID == "" {
			sourceID = res.SourceID
		}
		if merged.Complete() {
			r.log.Info("nutrition resolved", "provider", p.Name(), "ingredient", ingredientName, "provenance", string(res.Provenance), "fields", len(merged))
			return &ProviderResult{Record: merged, Provenance: res.Provenance, SourceID: sourceID}, nil
		}
		r.log.Debug("provider result incomplete", "provider", p.Name(), "ingredient", ingredientName, "missing", merged.Missing())
	}

	if lastErr != nil && !errors.Is(lastErr, domain.ErrProductNotFound) {
		return nil, fmt.Errorf("resolve %q: %w", ingredientName, lastErr)
	}
	return nil, fmt.Errorf("%w: %q lacks %v", domain.ErrIncompleteData, ingredientName, merged.Missing())
}
