package usecase

import (
	"context"
	"time"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// CalculationOutcome reports what a recipe nutrition run did.
type CalculationOutcome string

const (
	OutcomeCalculated      CalculationOutcome = "calculated"
	OutcomeSkippedExisting CalculationOutcome = "skipped-existing"
	OutcomeSkippedNoWeight CalculationOutcome = "skipped-no-usable-lines"
)

// RecipeCalculator loads a recipe with its ingredients' nutrition, aggregates it and
// stores the result under the recipe slug.
type RecipeCalculator struct {
	recipes             domain.RecipeRepository
	ingredients         domain.IngredientRepository
	ingredientNutrition domain.IngredientNutritionRepository
	recipeNutrition     domain.RecipeNutritionRepository
	aggregator          *RecipeAggregator
	log                 *logger.Logger
	now                 func() time.Time
}

func NewRecipeCalculator(
	recipes domain.RecipeRepository,
	ingredients domain.IngredientRepository,
	ingredientNutrition domain.IngredientNutritionRepository,
	recipeNutrition domain.RecipeNutritionRepository,
	aggregator *RecipeAggregator,
	log *logger.Logger,
) *RecipeCalculator {
	return &RecipeCalculator{
		recipes:             recipes,
		ingredients:         ingredients,
		ingredientNutrition: ingredientNutrition,
		recipeNutrition:     recipeNutrition,
		aggregator:          aggregator,
		log:                 log.With("service", "RecipeCalculator"),
		now:                 time.Now,
	}
}

// Calculate computes and stores nutrition for recipeID. A fresh publish of a recipe
// that already has a record is skipped; every other transition recomputes in place,
// even when the lines did not change.
func (c *RecipeCalculator) Calculate(ctx context.Context, recipeID uint, t domain.Transition) (CalculationOutcome, error) {
	recipe, err := c.recipes.FindByID(ctx, recipeID)
	if err != nil {
		return "", err
	}

	if t == domain.TransitionFreshPublish {
		existing, err := c.recipeNutrition.FindBySlug(ctx, recipe.Slug)
		if err != nil {
			return "", err
		}
		if existing != nil {
			c.log.Info("recipe nutrition exists, skipping fresh publish", "recipe_id", recipeID, "slug", recipe.Slug)
			return OutcomeSkippedExisting, nil
		}
	}

	lines, err := c.joinLines(ctx, recipe.Lines)
	if err != nil {
		return "", err
	}

	record, ok := c.aggregator.Aggregate(ctx, lines)
	if !ok {
		c.log.Info("recipe has no usable lines, nothing stored", "recipe_id", recipeID, "slug", recipe.Slug, "lines", len(recipe.Lines))
		return OutcomeSkippedNoWeight, nil
	}

	n := &domain.RecipeNutrition{
		RecipeID:       recipe.ID,
		RecipeSlug:     recipe.Slug,
		RecipeName:     recipe.Title,
		Nutrients:      record,
		LastCalculated: c.now(),
	}
	if err := c.recipeNutrition.Upsert(ctx, n); err != nil {
		return "", err
	}

	c.log.Info("recipe nutrition stored", "recipe_id", recipeID, "slug", recipe.Slug, "calories", record[domain.FieldCalories], "transition", t.String())
	return OutcomeCalculated, nil
}

// joinLines attaches each line's ingredient slug and nutrition, joined on slug.
func (c *RecipeCalculator) joinLines(ctx context.Context, lines []domain.RecipeIngredientLine) ([]AggregateLine, error) {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, l := range lines {
		if !seen[l.IngredientID] {
			seen[l.IngredientID] = true
			ids = append(ids, l.IngredientID)
		}
	}

	ingredients, err := c.ingredients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		slugs = append(slugs, ing.Slug)
	}

	nutrition, err := c.ingredientNutrition.FindBySlugs(ctx, slugs)
	if err != nil {
		return nil, err
	}

	out := make([]AggregateLine, 0, len(lines))
	for _, l := range lines {
		al := AggregateLine{Line: l}
		if ing, ok := ingredients[l.IngredientID]; ok {
			al.IngredientSlug = ing.Slug
			if n, ok := nutrition[ing.Slug]; ok {
				al.Nutrients = n.Nutrients
			}
		}
		out = append(out, al)
	}
	return out, nil
}
