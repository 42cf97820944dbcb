package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/macrolens/recipesync/internal/domain"
)

type ingredientRow struct {
	ID          uint   `gorm:"primaryKey"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Name        string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:16;index;not null;default:draft"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (ingredientRow) TableName() string { return "ingredients" }

func (r ingredientRow) toDomain() *domain.Ingredient {
	return &domain.Ingredient{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name,
		Description: r.Description,
		Status:      domain.Status(r.Status),
	}
}

type recipeRow struct {
	ID          uint   `gorm:"primaryKey"`
	Slug        string `gorm:"size:255;uniqueIndex;not null"`
	Title       string `gorm:"size:255;not null"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"size:16;index;not null;default:draft"`

	Lines []recipeIngredientRow `gorm:"foreignKey:RecipeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (recipeRow) TableName() string { return "recipes" }

func (r recipeRow) toDomain() *domain.Recipe {
	out := &domain.Recipe{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.Status(r.Status),
		Lines:       make([]domain.RecipeIngredientLine, 0, len(r.Lines)),
	}
	for _, l := range r.Lines {
		out.Lines = append(out.Lines, domain.RecipeIngredientLine{
			Amount:       l.Amount,
			Unit:         domain.Unit(l.Unit),
			IngredientID: l.IngredientID,
		})
	}
	return out
}

type recipeIngredientRow struct {
	ID           uint   `gorm:"primaryKey"`
	RecipeID     uint   `gorm:"index;not null"`
	Position     int    `gorm:"not null"`
	Amount       string `gorm:"size:32"`
	Unit         string `gorm:"size:16"`
	IngredientID uint   `gorm:"index;not null"`
}

func (recipeIngredientRow) TableName() string { return "recipe_ingredients" }

func linesToRows(recipeID uint, lines []domain.RecipeIngredientLine) []recipeIngredientRow {
	rows := make([]recipeIngredientRow, 0, len(lines))
	for i, l := range lines {
		rows = append(rows, recipeIngredientRow{
			RecipeID:     recipeID,
			Position:     i,
			Amount:       l.Amount,
			Unit:         string(l.Unit),
			IngredientID: l.IngredientID,
		})
	}
	return rows
}

// ingredientNutritionRow has no unique constraint; single creation is enforced by the
// consumer's existence check.
type ingredientNutritionRow struct {
	ID             uint           `gorm:"primaryKey"`
	IngredientID   uint           `gorm:"index;not null"`
	IngredientSlug string         `gorm:"size:255;index;not null"`
	Provenance     string         `gorm:"size:32;not null"`
	SourceID       string         `gorm:"size:64"`
	Nutrients      datatypes.JSON `gorm:"not null"`
	CreatedAt      time.Time
}

func (ingredientNutritionRow) TableName() string { return "ingredient_nutrition" }

func (r ingredientNutritionRow) toDomain() (*domain.IngredientNutrition, error) {
	nutrients, err := decodeNutrients(r.Nutrients)
	if err != nil {
		return nil, err
	}
	return &domain.IngredientNutrition{
		ID:             r.ID,
		IngredientID:   r.IngredientID,
		IngredientSlug: r.IngredientSlug,
		Provenance:     domain.Provenance(r.Provenance),
		SourceID:       r.SourceID,
		Nutrients:      nutrients,
		CreatedAt:      r.CreatedAt,
	}, nil
}

type recipeNutritionRow struct {
	ID             uint           `gorm:"primaryKey"`
	RecipeID       uint           `gorm:"index"`
	RecipeSlug     string         `gorm:"size:255;uniqueIndex;not null"`
	RecipeName     string         `gorm:"size:255"`
	Nutrients      datatypes.JSON `gorm:"not null"`
	LastCalculated time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (recipeNutritionRow) TableName() string { return "recipe_nutrition" }

func (r recipeNutritionRow) toDomain() (*domain.RecipeNutrition, error) {
	nutrients, err := decodeNutrients(r.Nutrients)
	if err != nil {
		return nil, err
	}
	return &domain.RecipeNutrition{
		ID:             r.ID,
		RecipeID:       r.RecipeID,
		RecipeSlug:     r.RecipeSlug,
		RecipeName:     r.RecipeName,
		Nutrients:      nutrients,
		LastCalculated: r.LastCalculated,
	}, nil
}

type translationRow struct {
	ID         uint   `gorm:"primaryKey"`
	EntityType string `gorm:"size:16;not null;uniqueIndex:idx_translation_key"`
	EntityID   uint   `gorm:"not null;uniqueIndex:idx_translation_key"`
	Locale     string `gorm:"size:35;not null;uniqueIndex:idx_translation_key"`
	Field      string `gorm:"size:64;not null;uniqueIndex:idx_translation_key"`
	Value      string `gorm:"type:text"`
	UpdatedAt  time.Time
}

func (translationRow) TableName() string { return "translations" }

func encodeNutrients(r domain.NutrientRecord) (datatypes.JSON, error) {
	raw, err := json.Marshal(r.Full())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeNutrients(raw datatypes.JSON) (domain.NutrientRecord, error) {
	out := domain.NutrientRecord{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
