package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistence, op, err)
}

func findErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	}
	return persistErr(op, err)
}

type IngredientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngredientRepo(db *gorm.DB, baseLog *logger.Logger) *IngredientRepo {
	return &IngredientRepo{db: db, log: baseLog.With("repo", "IngredientRepo")}
}

func (r *IngredientRepo) Create(ctx context.Context, ingredient *domain.Ingredient) error {
	row := ingredientRow{
		Slug:        ingredient.Slug,
		Name:        ingredient.Name,
		Description: ingredient.Description,
		Status:      string(ingredient.Status),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return persistErr("create ingredient", err)
	}
	ingredient.ID = row.ID
	return nil
}

func (r *IngredientRepo) Update(ctx context.Context, ingredient *domain.Ingredient) error {
	res := r.db.WithContext(ctx).
		Model(&ingredientRow{}).
		Where("id = ?", ingredient.ID).
		Updates(map[string]interface{}{
			"slug":        ingredient.Slug,
			"name":        ingredient.Name,
			"description": ingredient.Description,
			"status":      string(ingredient.Status),
		})
	if res.Error != nil {
		return persistErr("update ingredient", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ingredient %d", domain.ErrNotFound, ingredient.ID)
	}
	return nil
}

func (r *IngredientRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ingredientRow{}, id)
	if res.Error != nil {
		return persistErr("delete ingredient", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: ingredient %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *IngredientRepo) FindByID(ctx context.Context, id uint) (*domain.Ingredient, error) {
	var row ingredientRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, findErr(fmt.Sprintf("ingredient %d", id), err)
	}
	return row.toDomain(), nil
}

func (r *IngredientRepo) FindByIDs(ctx context.Context, ids []uint) (map[uint]*domain.Ingredient, error) {
	out := make(map[uint]*domain.Ingredient, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ingredientRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, persistErr("find ingredients", err)
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

type RecipeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecipeRepo(db *gorm.DB, baseLog *logger.Logger) *RecipeRepo {
	return &RecipeRepo{db: db, log: baseLog.With("repo", "RecipeRepo")}
}

// Create inserts the recipe and its lines in one transaction.
func (r *RecipeRepo) Create(ctx context.Context, recipe *domain.Recipe) error {
	row := recipeRow{
		Slug:        recipe.Slug,
		Title:       recipe.Title,
		Description: recipe.Description,
		Status:      string(recipe.Status),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		lines := linesToRows(row.ID, recipe.Lines)
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	if err != nil {
		return persistErr("create recipe", err)
	}
	recipe.ID = row.ID
	return nil
}

// Update rewrites the recipe fields and replaces its lines in one transaction.
func (r *RecipeRepo) Update(ctx context.Context, recipe *domain.Recipe) error {
	var notFound bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&recipeRow{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]interface{}{
				"slug":        recipe.Slug,
				"title":       recipe.Title,
				"description": recipe.Description,
				"status":      string(recipe.Status),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			notFound = true
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&recipeIngredientRow{}).Error; err != nil {
			return err
		}
		lines := linesToRows(recipe.ID, recipe.Lines)
		if len(lines) == 0 {
			return nil
		}
		return tx.Create(&lines).Error
	})
	if notFound {
		return fmt.Errorf("%w: recipe %d", domain.ErrNotFound, recipe.ID)
	}
	if err != nil {
		return persistErr("update recipe", err)
	}
	return nil
}

func (r *RecipeRepo) Delete(ctx context.Context, id uint) error {
	var notFound bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&recipeIngredientRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&recipeRow{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			notFound = true
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if notFound {
		return fmt.Errorf("%w: recipe %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return persistErr("delete recipe", err)
	}
	return nil
}

func (r *RecipeRepo) FindByID(ctx context.Context, id uint) (*domain.Recipe, error) {
	var row recipeRow
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&row, id).Error
	if err != nil {
		return nil, findErr(fmt.Sprintf("recipe %d", id), err)
	}
	return row.toDomain(), nil
}
