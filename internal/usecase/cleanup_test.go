package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

func TestCleanup_IngredientDelete(t *testing.T) {
	ing := NewMockIngredientNutritionRepository(
		&domain.IngredientNutrition{IngredientID: 1, IngredientSlug: "egg"},
		&domain.IngredientNutrition{IngredientID: 1, IngredientSlug: "egg"},
		&domain.IngredientNutrition{IngredientID: 2, IngredientSlug: "milk"},
	)
	tr := NewMockTranslationRepository()
	c := NewCleanup(ing, NewMockRecipeNutritionRepository(), tr, logger.NewNop())

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityIngredient, ID: 1, Slug: "egg", Prev: domain.StatusPublished, Op: domain.OpDelete})

	assert.Len(t, ing.records, 1)
	assert.Equal(t, "milk", ing.records[0].IngredientSlug)
	assert.Equal(t, []string{"ingredient/1"}, tr.deleted)
}

func TestCleanup_Batches(t *testing.T) {
	ing := NewMockIngredientNutritionRepository()
	ing.orphans["egg"] = 250
	c := NewCleanup(ing, NewMockRecipeNutritionRepository(), nil, logger.NewNop())

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityIngredient, ID: 1, Slug: "egg", Op: domain.OpDelete})

	assert.Equal(t, 3, ing.deleteCalls)
	assert.Zero(t, ing.orphans["egg"])
}

func TestCleanup_RoundCap(t *testing.T) {
	ing := NewMockIngredientNutritionRepository()
	ing.orphans["egg"] = 5000
	log, logs := logger.NewObserved()
	c := NewCleanup(ing, NewMockRecipeNutritionRepository(), nil, log)

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityIngredient, ID: 1, Slug: "egg", Op: domain.OpDelete})

	assert.Equal(t, cleanupMaxRounds, ing.deleteCalls)
	assert.Equal(t, 4000, ing.orphans["egg"])
	assert.Equal(t, 1, logs.FilterMessage("cleanup stopped at round cap").Len())
}

func TestCleanup_RecipeUnpublishKeepsTranslations(t *testing.T) {
	rec := NewMockRecipeNutritionRepository(&domain.RecipeNutrition{RecipeSlug: "stew"})
	tr := NewMockTranslationRepository()
	c := NewCleanup(NewMockIngredientNutritionRepository(), rec, tr, logger.NewNop())

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityRecipe, ID: 3, Slug: "stew", Prev: domain.StatusPublished, Next: domain.StatusDraft, Op: domain.OpUpdate})

	assert.Empty(t, rec.records)
	assert.Empty(t, tr.deleted)
}

func TestCleanup_RecipeDelete(t *testing.T) {
	rec := NewMockRecipeNutritionRepository(&domain.RecipeNutrition{RecipeSlug: "stew"})
	tr := NewMockTranslationRepository()
	c := NewCleanup(NewMockIngredientNutritionRepository(), rec, tr, logger.NewNop())

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityRecipe, ID: 3, Slug: "stew", Prev: domain.StatusDraft, Op: domain.OpDelete})

	assert.Empty(t, rec.records)
	assert.Equal(t, []string{"recipe/3"}, tr.deleted)
}

func TestCleanup_IgnoresOtherEvents(t *testing.T) {
	ing := NewMockIngredientNutritionRepository(&domain.IngredientNutrition{IngredientSlug: "egg"})
	rec := NewMockRecipeNutritionRepository(&domain.RecipeNutrition{RecipeSlug: "stew"})
	c := NewCleanup(ing, rec, NewMockTranslationRepository(), logger.NewNop())

	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityIngredient, ID: 1, Slug: "egg", Prev: domain.StatusPublished, Next: domain.StatusDraft, Op: domain.OpUpdate})
	c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityRecipe, ID: 3, Slug: "stew", Prev: domain.StatusPublished, Next: domain.StatusPublished, Op: domain.OpUpdate})

	assert.Zero(t, ing.deleteCalls)
	assert.Zero(t, rec.deleteCalls)
}

func TestCleanup_ErrorIsSwallowed(t *testing.T) {
	ing := NewMockIngredientNutritionRepository()
	ing.deleteErr = errors.New("db down")
	log, logs := logger.NewObserved()
	c := NewCleanup(ing, NewMockRecipeNutritionRepository(), NewMockTranslationRepository(), log)

	assert.NotPanics(t, func() {
		c.Handle(context.Background(), ChangeEvent{Entity: domain.EntityIngredient, ID: 1, Slug: "egg", Op: domain.OpDelete})
	})
	assert.Equal(t, 1, ing.deleteCalls)
	assert.Equal(t, 1, logs.FilterMessage("cleanup failed").Len())
}
