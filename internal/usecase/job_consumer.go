package usecase

import (
	"context"
	"fmt"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// JobResult describes a handled delivery.
type JobResult struct {
	Entity  domain.EntityType `json:"entity"`
	ID      uint              `json:"id"`
	Outcome string            `json:"outcome"`
}

// Resolver resolves nutrition for an ingredient name.
type Resolver interface {
	Resolve(ctx context.Context, ingredientName string) (*ProviderResult, error)
}

// EntityTranslator translates an entity into every target locale.
type EntityTranslator interface {
	TranslateEntity(ctx context.Context, entity domain.EntityType, id uint) (int, error)
}

// JobConsumer handles verified job deliveries. Each call is independent.
type JobConsumer struct {
	ingredients         domain.IngredientRepository
	ingredientNutrition domain.IngredientNutritionRepository
	resolver            Resolver
	recipes             RecipeNutritionCalculator
	translator          EntityTranslator
	log                 *logger.Logger
}

func NewJobConsumer(
	ingredients domain.IngredientRepository,
	ingredientNutrition domain.IngredientNutritionRepository,
	resolver Resolver,
	recipes RecipeNutritionCalculator,
	translator EntityTranslator,
	log *logger.Logger,
) *JobConsumer {
	return &JobConsumer{
		ingredients:         ingredients,
		ingredientNutrition: ingredientNutrition,
		resolver:            resolver,
		recipes:             recipes,
		translator:          translator,
		log:                 log.With("service", "JobConsumer"),
	}
}

// HandleNutrition resolves an ingredient once, or recomputes a recipe in place.
func (c *JobConsumer) HandleNutrition(ctx context.Context, msg domain.JobMessage) (*JobResult, error) {
	entity, rawID, err := msg.Entity()
	if err != nil {
		return nil, err
	}
	id, err := rawID.Uint()
	if err != nil {
		return nil, err
	}

	if entity == domain.EntityRecipe {
		outcome, err := c.recipes.Calculate(ctx, id, domain.TransitionRepublish)
		if err != nil {
			return nil, err
		}
		return &JobResult{Entity: entity, ID: id, Outcome: string(outcome)}, nil
	}
	return c.resolveIngredient(ctx, id)
}

// resolveIngredient is a no-op when a record already exists, so redelivery never duplicates.
func (c *JobConsumer) resolveIngredient(ctx context.Context, id uint) (*JobResult, error) {
	existing, err := c.ingredientNutrition.FindByIngredientID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		c.log.Info("ingredient nutrition exists, skipping", "ingredient_id", id, "record_id", existing.ID)
		return &JobResult{Entity: domain.EntityIngredient, ID: id, Outcome: "exists"}, nil
	}

	ing, err := c.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := c.resolver.Resolve(ctx, ing.Name)
	if err != nil {
		return nil, fmt.Errorf("ingredient %d: %w", id, err)
	}

	n := &domain.IngredientNutrition{
		IngredientID:   ing.ID,
		IngredientSlug: ing.Slug,
		Provenance:     res.Provenance,
		SourceID:       res.SourceID,
		Nutrients:      res.Record,
	}
	if err := c.ingredientNutrition.Create(ctx, n); err != nil {
		return nil, err
	}

	c.log.Info("ingredient nutrition created", "ingredient_id", id, "slug", ing.Slug, "provenance", string(res.Provenance), "source_id", res.SourceID)
	return &JobResult{Entity: domain.EntityIngredient, ID: id, Outcome: "created"}, nil
}

// HandleTranslation translates the referenced entity into every target locale.
func (c *JobConsumer) HandleTranslation(ctx context.Context, msg domain.JobMessage) (*JobResult, error) {
	entity, rawID, err := msg.Entity()
	if err != nil {
		return nil, err
	}
	id, err := rawID.Uint()
	if err != nil {
		return nil, err
	}

	written, err := c.translator.TranslateEntity(ctx, entity, id)
	if err != nil {
		return nil, err
	}
	return &JobResult{Entity: entity, ID: id, Outcome: fmt.Sprintf("translated %d fields", written)}, nil
}
