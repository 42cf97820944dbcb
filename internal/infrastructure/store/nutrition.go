package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

type IngredientNutritionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientNutritionRepo(db *gorm.DB, baseLog *logger.Logger) *IngredientNutritionRepo {
	return &IngredientNutritionRepo{db: db, log: baseLog.With("repo", "IngredientNutritionRepo")}
}

func (r *IngredientNutritionRepo) findOne(ctx context.Context, query string, arg interface{}) (*domain.IngredientNutrition, error) {
	var row ingredientNutritionRow
	err := r.db.WithContext(ctx).Where(query, arg).Order("id ASC").Limit(1).Find(&row).Error
	if err != nil {
		return nil, persistErr("find ingredient nutrition", err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	n, err := row.toDomain()
	if err != nil {
		return nil, persistErr("decode ingredient nutrition", err)
	}
	return n, nil
}

func (r *IngredientNutritionRepo) FindByIngredientID(ctx context.Context, ingredientID uint) (*domain.IngredientNutrition, error) {
	return r.findOne(ctx, "ingredient_id = ?", ingredientID)
}

func (r *IngredientNutritionRepo) FindBySlug(ctx context.Context, slug string) (*domain.IngredientNutrition, error) {
	return r.findOne(ctx, "ingredient_slug = ?", slug)
}

// FindBySlugs returns the oldest record per slug.
func (r *IngredientNutritionRepo) FindBySlugs(ctx context.Context, slugs []string) (map[string]*domain.IngredientNutrition, error) {
	out := make(map[string]*domain.IngredientNutrition, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	var rows []ingredientNutritionRow
	if err := r.db.WithContext(ctx).Where("ingredient_slug IN ?", slugs).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, persistErr("find ingredient nutrition", err)
	}
	for _, row := range rows {
		if _, seen := out[row.IngredientSlug]; seen {
			continue
		}
		n, err := row.toDomain()
		if err != nil {
			r.log.Warn("skipping undecodable ingredient nutrition", "id", row.ID, "slug", row.IngredientSlug, "error", err)
			continue
		}
		out[row.IngredientSlug] = n
	}
	return out, nil
}

func (r *IngredientNutritionRepo) Create(ctx context.Context, n *domain.IngredientNutrition) error {
	nutrients, err := encodeNutrients(n.Nutrients)
	if err != nil {
		return persistErr("encode ingredient nutrition", err)
	}
	row := ingredientNutritionRow{
		IngredientID:   n.IngredientID,
		IngredientSlug: n.IngredientSlug,
		Provenance:     string(n.Provenance),
		SourceID:       n.SourceID,
		Nutrients:      nutrients,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return persistErr("create ingredient nutrition", err)
	}
	n.ID = row.ID
	n.CreatedAt = row.CreatedAt
	return nil
}

// DeleteBySlug removes at most limit records for slug and reports how many went.
func (r *IngredientNutritionRepo) DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error) {
	return deleteBatch(r.db.WithContext(ctx), &ingredientNutritionRow{}, "ingredient_slug = ?", slug, limit)
}

func deleteBatch(db *gorm.DB, model interface{}, query string, arg interface{}, limit int) (int64, error) {
	ids := db.Model(model).Select("id").Where(query, arg).Limit(limit)
	res := db.Where("id IN (?)", ids).Delete(model)
	if res.Error != nil {
		return 0, persistErr("delete batch", res.Error)
	}
	return res.RowsAffected, nil
}

type RecipeNutritionRepo struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

func NewRecipeNutritionRepo(db *gorm.DB, baseLog *logger.Logger) *RecipeNutritionRepo {
	return &RecipeNutritionRepo{db: db, log: baseLog.With("repo", "RecipeNutritionRepo"), now: time.Now}
}

func (r *RecipeNutritionRepo) FindBySlug(ctx context.Context, slug string) (*domain.RecipeNutrition, error) {
	var row recipeNutritionRow
	err := r.db.WithContext(ctx).Where("recipe_slug = ?", slug).Limit(1).Find(&row).Error
	if err != nil {
		return nil, persistErr("find recipe nutrition", err)
	}
	if row.ID == 0 {
		return nil, nil
	}
	n, err := row.toDomain()
	if err != nil {
		return nil, persistErr("decode recipe nutrition", err)
	}
	return n, nil
}

// Upsert creates the record for n.RecipeSlug or updates the live one in place.
func (r *RecipeNutritionRepo) Upsert(ctx context.Context, n *domain.RecipeNutrition) error {
	nutrients, err := encodeNutrients(n.Nutrients)
	if err != nil {
		return persistErr("encode recipe nutrition", err)
	}
	if n.LastCalculated.IsZero() {
		n.LastCalculated = r.now()
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing recipeNutritionRow
		err := tx.Where("recipe_slug = ?", n.RecipeSlug).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := recipeNutritionRow{
				RecipeID:       n.RecipeID,
				RecipeSlug:     n.RecipeSlug,
				RecipeName:     n.RecipeName,
				Nutrients:      nutrients,
				LastCalculated: n.LastCalculated,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			n.ID = row.ID
			return nil
		case err != nil:
			return err
		}

		n.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"recipe_id":       n.RecipeID,
			"recipe_name":     n.RecipeName,
			"nutrients":       nutrients,
			"last_calculated": n.LastCalculated,
		}).Error
	})
	if err != nil {
		return persistErr(fmt.Sprintf("upsert recipe nutrition %q", n.RecipeSlug), err)
	}
	return nil
}

func (r *RecipeNutritionRepo) DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error) {
	return deleteBatch(r.db.WithContext(ctx), &recipeNutritionRow{}, "recipe_slug = ?", slug, limit)
}
