package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/macrolens/recipesync/internal/domain"
)

const estimatorSystemPrompt = `You are a food composition database.
Return nutrient values for 100 grams of the named raw ingredient.
Units: calories in kcal; protein, fat, carbohydrates, fiber, sugar and fatty acids in g;
cholesterol, sodium, potassium, calcium, iron, magnesium, phosphorus, zinc, copper, manganese,
vitamin C, vitamin E, thiamin, riboflavin, niacin and vitamin B6 in mg;
selenium, chromium, molybdenum, iodine, vitamin K, folate, vitamin B12 and biotin in µg;
vitamin A and vitamin D in IU.
pieceWeightSmall, pieceWeightMedium and pieceWeightLarge are the typical weight in grams of one
small, medium and large piece of the ingredient, not per 100 g.
Use 0 for any value that is unknown or does not apply. Never omit a field.`

// nutrientSchema is the strict output schema: every canonical field, numeric, required.
func nutrientSchema() map[string]any {
	props := make(map[string]any, len(domain.NutrientFields))
	required := make([]string, 0, len(domain.NutrientFields))
	for _, f := range domain.NutrientFields {
		props[string(f)] = map[string]any{"type": "number"}
		required = append(required, string(f))
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// JSONGenerator is the structured-output capability the estimator needs.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
}

// Estimator implements domain.NutrientEstimator on a JSON generator.
type Estimator struct {
	gen    JSONGenerator
	schema map[string]any
}

func NewEstimator(gen JSONGenerator) *Estimator {
	return &Estimator{gen: gen, schema: nutrientSchema()}
}

// EstimateNutrients returns a record holding every field the model returned as a
// finite non-negative number. Zeros are kept, since the prompt asks for 0 on unknowns.
func (e *Estimator) EstimateNutrients(ctx context.Context, ingredientName string) (domain.NutrientRecord, error) {
	name := strings.TrimSpace(ingredientName)
	if name == "" {
		return nil, fmt.Errorf("%w: empty ingredient name", domain.ErrInvalidRequest)
	}

	obj, err := e.gen.GenerateJSON(ctx, estimatorSystemPrompt, "Ingredient: "+name, "nutrient_record", e.schema)
	if err != nil {
		return nil, err
	}

	record := domain.NutrientRecord{}
	for _, f := range domain.NutrientFields {
		if v, ok := toFloat(obj[string(f)]); ok {
			record[f] = v
		}
	}
	return record.Sanitize(), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
