package usecase

import (
	"context"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// gramsPerUnit are kitchen approximations; volumes assume water density.
var gramsPerUnit = map[domain.Unit]float64{
	domain.UnitGram:       1,
	domain.UnitKilogram:   1000,
	domain.UnitMilliliter: 1,
	domain.UnitLiter:      1000,
	domain.UnitTeaspoon:   5,
	domain.UnitTablespoon: 15,
	domain.UnitCup:        240,
}

var defaultPieceWeights = map[domain.Unit]float64{
	domain.UnitPieceSmall:  100,
	domain.UnitPieceMedium: 200,
	domain.UnitPieceLarge:  300,
}

// PieceWeightLookup reads the stored weight in grams of one piece of an ingredient.
// A zero weight means none is stored.
type PieceWeightLookup interface {
	PieceWeight(ctx context.Context, ingredientSlug string, field domain.NutrientField) (float64, error)
}

// UnitConverter converts recipe line quantities to grams. It never fails.
type UnitConverter struct {
	weights PieceWeightLookup
	log     *logger.Logger
}

func NewUnitConverter(weights PieceWeightLookup, log *logger.Logger) *UnitConverter {
	return &UnitConverter{weights: weights, log: log.With("service", "UnitConverter")}
}

// ToGrams converts amount of unit to grams. Piece units use the ingredient's stored
// piece weight, falling back to fixed defaults when it is absent or unreadable.
// Unknown units are treated as grams.
func (c *UnitConverter) ToGrams(ctx context.Context, amount float64, unit domain.Unit, ingredientSlug string) float64 {
	if factor, ok := gramsPerUnit[unit]; ok {
		return amount * factor
	}

	field, ok := unit.PieceWeightField()
	if !ok {
		c.log.Debug("unknown unit treated as grams", "unit", string(unit))
		return amount
	}

	if c.weights != nil && ingredientSlug != "" {
		weight, err := c.weights.PieceWeight(ctx, ingredientSlug, field)
		switch {
		case err != nil:
			c.log.Warn("piece weight lookup failed, using default", "slug", ingredientSlug, "unit", string(unit), "error", err)
		case weight > 0:
			return amount * weight
		}
	}
	return amount * defaultPieceWeights[unit]
}

// nutritionPieceWeights reads piece weights from resolved ingredient nutrition.
type nutritionPieceWeights struct {
	repo domain.IngredientNutritionRepository
}

// NewNutritionPieceWeights returns a PieceWeightLookup over stored ingredient nutrition.
func NewNutritionPieceWeights(repo domain.IngredientNutritionRepository) PieceWeightLookup {
	return nutritionPieceWeights{repo: repo}
}

func (w nutritionPieceWeights) PieceWeight(ctx context.Context, ingredientSlug string, field domain.NutrientField) (float64, error) {
	n, err := w.repo.FindBySlug(ctx, ingredientSlug)
	if err != nil || n == nil {
		return 0, err
	}
	return n.Nutrients[field], nil
}
