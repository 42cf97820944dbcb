package domain

import (
	"context"
	"time"
)

// CacheRepository stores opaque encoded values with a TTL. Get returns ErrCacheMiss
// for absent or expired keys.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID int) (*USDAFood, error)
}

// NutrientEstimator produces a per-100g estimate for every canonical field from a generative model.
type NutrientEstimator interface {
	EstimateNutrients(ctx context.Context, ingredientName string) (NutrientRecord, error)
}

// Translator translates plain text into the target locale.
type Translator interface {
	Translate(ctx context.Context, text string, targetLocale string) (string, error)
}

// JobPublisher hands a job payload to the queueing transport for delivery to url.
type JobPublisher interface {
	Publish(ctx context.Context, url string, payload any) (messageID string, err error)
}

// IngredientRepository is the content store view of ingredients. FindByID returns
// ErrNotFound for a missing row.
type IngredientRepository interface {
	Create(ctx context.Context, ingredient *Ingredient) error
	Update(ctx context.Context, ingredient *Ingredient) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Ingredient, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]*Ingredient, error)
}

// RecipeRepository is the content store view of recipes. FindByID loads ingredient lines
// and returns ErrNotFound for a missing row.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *Recipe) error
	Update(ctx context.Context, recipe *Recipe) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*Recipe, error)
}

// TranslationRepository stores localized values of entity fields.
type TranslationRepository interface {
	Set(ctx context.Context, entity EntityType, id uint, locale, field, value string) error
	Get(ctx context.Context, entity EntityType, id uint, locale string) (map[string]string, error)
	DeleteEntity(ctx context.Context, entity EntityType, id uint) error
}

// IngredientNutritionRepository persists resolved ingredient nutrition. Finders return
// nil without error when nothing is stored. Records join to ingredients on slug.
type IngredientNutritionRepository interface {
	FindByIngredientID(ctx context.Context, ingredientID uint) (*IngredientNutrition, error)
	FindBySlug(ctx context.Context, slug string) (*IngredientNutrition, error)
	FindBySlugs(ctx context.Context, slugs []string) (map[string]*IngredientNutrition, error)
	Create(ctx context.Context, n *IngredientNutrition) error
	DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error)
}

// RecipeNutritionRepository persists aggregated recipe nutrition, one live record per slug.
// FindBySlug returns nil without error when nothing is stored.
type RecipeNutritionRepository interface {
	FindBySlug(ctx context.Context, slug string) (*RecipeNutrition, error)
	Upsert(ctx context.Context, n *RecipeNutrition) error
	DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error)
}
