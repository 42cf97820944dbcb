package usecase

import (
	"context"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

const (
	cleanupBatchSize = 100
	cleanupMaxRounds = 10
)

// batchDeleter removes at most limit rows for slug per call.
type batchDeleter func(ctx context.Context, slug string, limit int) (int64, error)

// Cleanup removes derived records once their source entity is gone or unpublished.
// Failures are logged and swallowed.
type Cleanup struct {
	ingredientNutrition domain.IngredientNutritionRepository
	recipeNutrition     domain.RecipeNutritionRepository
	translations        domain.TranslationRepository
	log                 *logger.Logger
}

func NewCleanup(
	ingredientNutrition domain.IngredientNutritionRepository,
	recipeNutrition domain.RecipeNutritionRepository,
	translations domain.TranslationRepository,
	log *logger.Logger,
) *Cleanup {
	return &Cleanup{
		ingredientNutrition: ingredientNutrition,
		recipeNutrition:     recipeNutrition,
		translations:        translations,
		log:                 log.With("service", "Cleanup"),
	}
}

// Handle runs the cleanup ev calls for:
//   - ingredient deleted: its nutrition records and translations;
//   - recipe deleted: its nutrition record and translations;
//   - recipe unpublished: its nutrition record.
func (c *Cleanup) Handle(ctx context.Context, ev ChangeEvent) {
	deleted := ev.Op == domain.OpDelete
	switch ev.Entity {
	case domain.EntityIngredient:
		if !deleted {
			return
		}
		c.drain(ctx, "ingredient_nutrition", ev.Slug, c.ingredientNutrition.DeleteBySlug)
	case domain.EntityRecipe:
		if !deleted && ev.Transition() != domain.TransitionUnpublish {
			return
		}
		c.drain(ctx, "recipe_nutrition", ev.Slug, c.recipeNutrition.DeleteBySlug)
	default:
		return
	}

	if deleted && c.translations != nil {
		if err := c.translations.DeleteEntity(ctx, ev.Entity, ev.ID); err != nil {
			c.log.Warn("translation cleanup failed", "entity", string(ev.Entity), "id", ev.ID, "error", err)
		}
	}
}

// drain deletes in bounded batches until a short batch comes back or the round cap is hit.
func (c *Cleanup) drain(ctx context.Context, table, slug string, del batchDeleter) {
	if slug == "" {
		c.log.Warn("cleanup skipped, entity has no slug", "table", table)
		return
	}

	var total int64
	for round := 0; round < cleanupMaxRounds; round++ {
		n, err := del(ctx, slug, cleanupBatchSize)
		if err != nil {
			c.log.Warn("cleanup failed", "table", table, "slug", slug, "deleted", total, "error", err)
			return
		}
		total += n
		if n < cleanupBatchSize {
			c.log.Info("cleanup done", "table", table, "slug", slug, "deleted", total)
			return
		}
	}
	c.log.Warn("cleanup stopped at round cap", "table", table, "slug", slug, "deleted", total)
}
