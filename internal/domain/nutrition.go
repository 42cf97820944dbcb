package domain

import (
	"math"
	"time"
)

// NutrientField is one canonical nutrient tracked per 100 grams of substance.
// The three piece-weight fields are absolute grams of one piece.
type NutrientField string

const (
	FieldCalories           NutrientField = "calories"
	FieldProtein            NutrientField = "protein"
	FieldFat                NutrientField = "fat"
	FieldCarbohydrates      NutrientField = "carbohydrates"
	FieldFiber              NutrientField = "fiber"
	FieldSugar              NutrientField = "sugar"
	FieldSaturatedFat       NutrientField = "saturatedFat"
	FieldMonounsaturatedFat NutrientField = "monounsaturatedFat"
	FieldPolyunsaturatedFat NutrientField = "polyunsaturatedFat"
	FieldCholesterol        NutrientField = "cholesterol"
	FieldSodium             NutrientField = "sodium"
	FieldPotassium          NutrientField = "potassium"
	FieldCalcium            NutrientField = "calcium"
	FieldIron               NutrientField = "iron"
	FieldMagnesium          NutrientField = "magnesium"
	FieldPhosphorus         NutrientField = "phosphorus"
	FieldZinc               NutrientField = "zinc"
	FieldCopper             NutrientField = "copper"
	FieldManganese          NutrientField = "manganese"
	FieldSelenium           NutrientField = "selenium"
	FieldChromium           NutrientField = "chromium"
	FieldMolybdenum         NutrientField = "molybdenum"
	FieldIodine             NutrientField = "iodine"
	FieldVitaminA           NutrientField = "vitaminA"
	FieldVitaminC           NutrientField = "vitaminC"
	FieldVitaminD           NutrientField = "vitaminD"
	FieldVitaminE           NutrientField = "vitaminE"
	FieldVitaminK           NutrientField = "vitaminK"
	FieldThiamin            NutrientField = "thiamin"
	FieldRiboflavin         NutrientField = "riboflavin"
	FieldNiacin             NutrientField = "niacin"
	FieldVitaminB6          NutrientField = "vitaminB6"
	FieldFolate             NutrientField = "folate"
	FieldVitaminB12         NutrientField = "vitaminB12"
	FieldBiotin             NutrientField = "biotin"
	FieldPieceWeightSmall   NutrientField = "pieceWeightSmall"
	FieldPieceWeightMedium  NutrientField = "pieceWeightMedium"
	FieldPieceWeightLarge   NutrientField = "pieceWeightLarge"
)

// NutrientFields lists every canonical field in a stable order.
var NutrientFields = []NutrientField{
	FieldCalories, FieldProtein, FieldFat, FieldCarbohydrates,
	FieldFiber, FieldSugar, FieldSaturatedFat, FieldMonounsaturatedFat, FieldPolyunsaturatedFat,
	FieldCholesterol, FieldSodium, FieldPotassium, FieldCalcium, FieldIron, FieldMagnesium,
	FieldPhosphorus, FieldZinc, FieldCopper, FieldManganese, FieldSelenium, FieldChromium,
	FieldMolybdenum, FieldIodine,
	FieldVitaminA, FieldVitaminC, FieldVitaminD, FieldVitaminE, FieldVitaminK,
	FieldThiamin, FieldRiboflavin, FieldNiacin, FieldVitaminB6, FieldFolate, FieldVitaminB12, FieldBiotin,
	FieldPieceWeightSmall, FieldPieceWeightMedium, FieldPieceWeightLarge,
}

// CoreFields must all be present for a record to be complete.
var CoreFields = []NutrientField{FieldCalories, FieldProtein, FieldFat, FieldCarbohydrates}

// IsPieceWeight reports whether f holds an absolute piece weight rather than a per-100g amount.
func (f NutrientField) IsPieceWeight() bool {
	return f == FieldPieceWeightSmall || f == FieldPieceWeightMedium || f == FieldPieceWeightLarge
}

// NutrientRecord maps canonical fields to values. A missing key means "unknown",
// which is different from a stored zero.
type NutrientRecord map[NutrientField]float64

// Complete reports whether all core fields are present.
func (r NutrientRecord) Complete() bool {
	return len(r.Missing()) == 0
}

// Missing returns the core fields absent from the record.
func (r NutrientRecord) Missing() []NutrientField {
	var missing []NutrientField
	for _, f := range CoreFields {
		if _, ok := r[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

// FillMissing copies values from other only for fields r does not already hold.
// The receiver's values always win.
func (r NutrientRecord) FillMissing(other NutrientRecord) NutrientRecord {
	out := make(NutrientRecord, len(r)+len(other))
	for f, v := range other {
		out[f] = v
	}
	for f, v := range r {
		out[f] = v
	}
	return out
}

// Sanitize drops values that are not finite or are negative.
func (r NutrientRecord) Sanitize() NutrientRecord {
	out := make(NutrientRecord, len(r))
	for f, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out[f] = v
	}
	return out
}

// Full returns a record holding every canonical field, zero for unknowns.
func (r NutrientRecord) Full() NutrientRecord {
	out := make(NutrientRecord, len(NutrientFields))
	for _, f := range NutrientFields {
		out[f] = r[f]
	}
	return out
}

// Round2 rounds every value to two decimal places.
func (r NutrientRecord) Round2() NutrientRecord {
	out := make(NutrientRecord, len(r))
	for f, v := range r {
		out[f] = Round2(v)
	}
	return out
}

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Provenance records where a nutrient record came from.
type Provenance string

const (
	ProvenanceStructured Provenance = "structured-source"
	ProvenanceGenerative Provenance = "generative-fallback"
)

// IngredientNutrition is the per-100g nutrition resolved once for an ingredient.
type IngredientNutrition struct {
	ID             uint           `json:"id"`
	IngredientID   uint           `json:"ingredientId"`
	IngredientSlug string         `json:"ingredientSlug"`
	Provenance     Provenance     `json:"provenance"`
	SourceID       string         `json:"sourceId,omitempty"`
	Nutrients      NutrientRecord `json:"nutrients"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// RecipeNutrition is the aggregated per-100g profile of a published recipe.
type RecipeNutrition struct {
	ID             uint           `json:"id"`
	RecipeID       uint           `json:"recipeId"`
	RecipeSlug     string         `json:"recipeSlug"`
	RecipeName     string         `json:"recipeName"`
	Nutrients      NutrientRecord `json:"nutrients"`
	LastCalculated time.Time      `json:"lastCalculated"`
}

// USDAFood represents a food item from the USDA FoodData Central API
type USDAFood struct {
	FdcID       int            `json:"fdcId"`
	Description string         `json:"description"`
	DataType    string         `json:"dataType"`
	Nutrients   []USDANutrient `json:"foodNutrients"`
}

// USDANutrient is one nutrient row, normalized from either the search or the detail shape.
type USDANutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// USDASearchResponse represents the response from USDA search API
type USDASearchResponse struct {
	Foods       []USDAFood `json:"foods"`
	TotalHits   int        `json:"totalHits"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
}
