package domain

import (
	"math"
	"strconv"
	"strings"
)

// Status is the publish state of a catalog entity.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Unit is the measure of a recipe ingredient line.
type Unit string

const (
	UnitGram        Unit = "g"
	UnitKilogram    Unit = "kg"
	UnitMilliliter  Unit = "ml"
	UnitLiter       Unit = "l"
	UnitTeaspoon    Unit = "tsp"
	UnitTablespoon  Unit = "tbsp"
	UnitCup         Unit = "cup"
	UnitPieceSmall  Unit = "piece_small"
	UnitPieceMedium Unit = "piece_medium"
	UnitPieceLarge  Unit = "piece_large"
)

// IsPiece reports whether u counts discrete pieces.
func (u Unit) IsPiece() bool {
	return u == UnitPieceSmall || u == UnitPieceMedium || u == UnitPieceLarge
}

// PieceWeightField returns the nutrient field storing the weight of one piece of size u.
func (u Unit) PieceWeightField() (NutrientField, bool) {
	switch u {
	case UnitPieceSmall:
		return FieldPieceWeightSmall, true
	case UnitPieceMedium:
		return FieldPieceWeightMedium, true
	case UnitPieceLarge:
		return FieldPieceWeightLarge, true
	}
	return "", false
}

// Ingredient is a catalog ingredient in its canonical locale.
type Ingredient struct {
	ID          uint   `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
}

// Recipe is a catalog recipe in its canonical locale.
type Recipe struct {
	ID          uint                   `json:"id"`
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Status      Status                 `json:"status"`
	Lines       []RecipeIngredientLine `json:"ingredients"`
}

// RecipeIngredientLine is one "amount unit ingredient" row of a recipe.
type RecipeIngredientLine struct {
	Amount       string `json:"amount"`
	Unit         Unit   `json:"unit"`
	IngredientID uint   `json:"ingredientId"`
}

// Quantity parses the amount, returning 0 when it is not a non-negative number.
// A decimal comma is accepted.
func (l RecipeIngredientLine) Quantity() float64 {
	s := strings.ReplaceAll(strings.TrimSpace(l.Amount), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
