package usecase

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

const (
	// calorieTolerance bounds the advisory Atwater check in kcal per 100 g.
	calorieTolerance = 50

	weightLookupConcurrency = 8
)

// AggregateLine is a recipe line joined with its ingredient's resolved record.
// Nutrients is nil when the ingredient has no resolved nutrition.
type AggregateLine struct {
	Line           domain.RecipeIngredientLine
	IngredientSlug string
	Nutrients      domain.NutrientRecord
}

// RecipeAggregator computes a recipe's per-100g profile from its lines.
// Retention factor is fixed at 1.0.
type RecipeAggregator struct {
	converter *UnitConverter
	log       *logger.Logger
}

func NewRecipeAggregator(converter *UnitConverter, log *logger.Logger) *RecipeAggregator {
	return &RecipeAggregator{converter: converter, log: log.With("service", "RecipeAggregator")}
}

// Aggregate returns the rounded per-100g record, or false when no line carries
// usable weight. Lines without nutrients are skipped and do not count toward weight.
// Piece-weight fields are not aggregated.
func (a *RecipeAggregator) Aggregate(ctx context.Context, lines []AggregateLine) (domain.NutrientRecord, bool) {
	grams := make([]float64, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(weightLookupConcurrency)
	for i, l := range lines {
		if l.Nutrients == nil {
			continue
		}
		g.Go(func() error {
			grams[i] = a.converter.ToGrams(gctx, l.Line.Quantity(), l.Line.Unit, l.IngredientSlug)
			return nil
		})
	}
	_ = g.Wait()

	var totalWeight float64
	totals := domain.NutrientRecord{}
	for i, l := range lines {
		if l.Nutrients == nil {
			a.log.Info("skipping line without resolved nutrition", "ingredient_id", l.Line.IngredientID, "slug", l.IngredientSlug)
			continue
		}
		w := grams[i]
		if !(w > 0) || math.IsInf(w, 0) {
			continue
		}
		totalWeight += w
		for f, v := range l.Nutrients {
			if f.IsPieceWeight() {
				continue
			}
			totals[f] += v / 100 * w
		}
	}

	if totalWeight <= 0 {
		return nil, false
	}

	record := make(domain.NutrientRecord, len(totals))
	for f, v := range totals {
		record[f] = domain.Round2(v / totalWeight * 100)
	}

	a.checkCalories(record)
	return record, true
}

// checkCalories logs when calories disagree with 4/9/4 Atwater factors.
func (a *RecipeAggregator) checkCalories(r domain.NutrientRecord) {
	expected := 4*r[domain.FieldProtein] + 9*r[domain.FieldFat] + 4*r[domain.FieldCarbohydrates]
	if diff := math.Abs(r[domain.FieldCalories] - expected); diff > calorieTolerance {
		a.log.Warn("calorie sanity check failed",
			"calories", r[domain.FieldCalories],
			"expected", domain.Round2(expected),
			"diff", domain.Round2(diff),
		)
	}
}
