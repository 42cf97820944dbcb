package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

type calculatorFixture struct {
	calc     *RecipeCalculator
	recipes  *MockRecipeRepository
	nutrient *MockRecipeNutritionRepository
}

func newCalculatorFixture(existing ...*domain.RecipeNutrition) calculatorFixture {
	log := logger.NewNop()
	ingredients := NewMockIngredientRepository(
		domain.Ingredient{ID: 1, Slug: "flour", Name: "Flour", Status: domain.StatusPublished},
		domain.Ingredient{ID: 2, Slug: "butter", Name: "Butter", Status: domain.StatusPublished},
		domain.Ingredient{ID: 3, Slug: "saffron", Name: "Saffron", Status: domain.StatusPublished},
	)
	ingNutrition := NewMockIngredientNutritionRepository(
		&domain.IngredientNutrition{IngredientID: 1, IngredientSlug: "flour", Nutrients: completeRecord(364, 10, 1, 76)},
		&domain.IngredientNutrition{IngredientID: 2, IngredientSlug: "butter", Nutrients: completeRecord(717, 1, 81, 0)},
	)
	recipes := NewMockRecipeRepository(
		domain.Recipe{ID: 10, Slug: "shortbread", Title: "Shortbread", Status: domain.StatusPublished, Lines: []domain.RecipeIngredientLine{
			{Amount: "300", Unit: domain.UnitGram, IngredientID: 1},
			{Amount: "0.1", Unit: domain.UnitKilogram, IngredientID: 2},
			{Amount: "1", Unit: domain.UnitPieceSmall, IngredientID: 3},
		}},
		domain.Recipe{ID: 11, Slug: "saffron-water", Title: "Saffron water", Status: domain.StatusPublished, Lines: []domain.RecipeIngredientLine{
			{Amount: "2", Unit: domain.UnitGram, IngredientID: 3},
		}},
	)
	recNutrition := NewMockRecipeNutritionRepository(existing...)

	converter := NewUnitConverter(NewNutritionPieceWeights(ingNutrition), log)
	calc := NewRecipeCalculator(recipes, ingredients, ingNutrition, recNutrition, NewRecipeAggregator(converter, log), log)
	calc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return calculatorFixture{calc: calc, recipes: recipes, nutrient: recNutrition}
}

func TestCalculate_StoresAggregate(t *testing.T) {
	f := newCalculatorFixture()

	outcome, err := f.calc.Calculate(context.Background(), 10, domain.TransitionFreshPublish)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCalculated, outcome)

	got := f.nutrient.records["shortbread"]
	require.NotNil(t, got)
	assert.Equal(t, uint(10), got.RecipeID)
	assert.Equal(t, "Shortbread", got.RecipeName)
	// (364*3 + 717*1) / 4; saffron has no nutrition and adds no weight
	assert.Equal(t, 452.25, got.Nutrients[domain.FieldCalories])
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), got.LastCalculated)
}

func TestCalculate_FreshPublishSkipsExisting(t *testing.T) {
	f := newCalculatorFixture(&domain.RecipeNutrition{RecipeID: 10, RecipeSlug: "shortbread", Nutrients: completeRecord(1, 1, 1, 1)})

	outcome, err := f.calc.Calculate(context.Background(), 10, domain.TransitionFreshPublish)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedExisting, outcome)
	assert.Zero(t, f.nutrient.upserts)
}

func TestCalculate_RepublishRecomputes(t *testing.T) {
	f := newCalculatorFixture(&domain.RecipeNutrition{RecipeID: 10, RecipeSlug: "shortbread", Nutrients: completeRecord(1, 1, 1, 1)})

	outcome, err := f.calc.Calculate(context.Background(), 10, domain.TransitionRepublish)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCalculated, outcome)
	assert.Equal(t, 1, f.nutrient.upserts)
	assert.Equal(t, 452.25, f.nutrient.records["shortbread"].Nutrients[domain.FieldCalories])

	_, err = f.calc.Calculate(context.Background(), 10, domain.TransitionRepublish)
	require.NoError(t, err)
	assert.Equal(t, 2, f.nutrient.upserts)
	assert.Len(t, f.nutrient.records, 1)
}

func TestCalculate_NoUsableLines(t *testing.T) {
	f := newCalculatorFixture()

	outcome, err := f.calc.Calculate(context.Background(), 11, domain.TransitionFreshPublish)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkippedNoWeight, outcome)
	assert.Empty(t, f.nutrient.records)
}

func TestCalculate_MissingRecipe(t *testing.T) {
	f := newCalculatorFixture()

	_, err := f.calc.Calculate(context.Background(), 99, domain.TransitionRepublish)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
