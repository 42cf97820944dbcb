package usda

import (
	"strings"

	"github.com/macrolens/recipesync/internal/domain"
)

// USDA Nutrient IDs for key macronutrients. Search results sometimes carry only the id.
const (
	NutrientIDEnergy       = 1008 // Calories (kcal)
	NutrientIDProtein      = 1003 // Protein (g)
	NutrientIDCarbohydrate = 1005 // Carbohydrates (g)
	NutrientIDTotalFat     = 1004 // Total Fat (g)
)

var nutrientIDToNumber = map[int]string{
	NutrientIDEnergy:       "208",
	NutrientIDProtein:      "203",
	NutrientIDTotalFat:     "204",
	NutrientIDCarbohydrate: "205",
}

// massUnit is the class of unit a canonical field is stored in.
type massUnit string

const (
	unitGram      massUnit = "g"
	unitMilligram massUnit = "mg"
	unitMicrogram massUnit = "µg"
	unitKcal      massUnit = "kcal"
	unitIU        massUnit = "iu"
)

type codeMapping struct {
	field domain.NutrientField
	// alias codes only fill a field no primary code supplied
	alias bool
}

// nutrientCodes maps USDA nutrient numbers to canonical fields.
var nutrientCodes = map[string]codeMapping{
	"208":   {field: domain.FieldCalories},
	"957":   {field: domain.FieldCalories, alias: true}, // Energy (Atwater General Factors)
	"958":   {field: domain.FieldCalories, alias: true}, // Energy (Atwater Specific Factors)
	"203":   {field: domain.FieldProtein},
	"204":   {field: domain.FieldFat},
	"205":   {field: domain.FieldCarbohydrates},
	"205.2": {field: domain.FieldCarbohydrates, alias: true}, // by summation
	"291":   {field: domain.FieldFiber},
	"269":   {field: domain.FieldSugar},
	"269.3": {field: domain.FieldSugar, alias: true}, // Sugars, Total NLEA
	"606":   {field: domain.FieldSaturatedFat},
	"645":   {field: domain.FieldMonounsaturatedFat},
	"646":   {field: domain.FieldPolyunsaturatedFat},
	"601":   {field: domain.FieldCholesterol},
	"307":   {field: domain.FieldSodium},
	"306":   {field: domain.FieldPotassium},
	"301":   {field: domain.FieldCalcium},
	"303":   {field: domain.FieldIron},
	"304":   {field: domain.FieldMagnesium},
	"305":   {field: domain.FieldPhosphorus},
	"309":   {field: domain.FieldZinc},
	"312":   {field: domain.FieldCopper},
	"315":   {field: domain.FieldManganese},
	"317":   {field: domain.FieldSelenium},
	"096":   {field: domain.FieldChromium},
	"102":   {field: domain.FieldMolybdenum},
	"314":   {field: domain.FieldIodine},
	"318":   {field: domain.FieldVitaminA},
	"401":   {field: domain.FieldVitaminC},
	"324":   {field: domain.FieldVitaminD},
	"323":   {field: domain.FieldVitaminE},
	"430":   {field: domain.FieldVitaminK},
	"404":   {field: domain.FieldThiamin},
	"405":   {field: domain.FieldRiboflavin},
	"406":   {field: domain.FieldNiacin},
	"415":   {field: domain.FieldVitaminB6},
	"417":   {field: domain.FieldFolate},
	"435":   {field: domain.FieldFolate, alias: true}, // Folate, DFE
	"418":   {field: domain.FieldVitaminB12},
	"416":   {field: domain.FieldBiotin},
}

var milligramFields = map[domain.NutrientField]bool{
	domain.FieldCholesterol: true, domain.FieldSodium: true, domain.FieldPotassium: true,
	domain.FieldCalcium: true, domain.FieldIron: true, domain.FieldMagnesium: true,
	domain.FieldPhosphorus: true, domain.FieldZinc: true, domain.FieldCopper: true,
	domain.FieldManganese: true, domain.FieldVitaminC: true, domain.FieldVitaminE: true,
	domain.FieldThiamin: true, domain.FieldRiboflavin: true, domain.FieldNiacin: true,
	domain.FieldVitaminB6: true,
}

var microgramFields = map[domain.NutrientField]bool{
	domain.FieldFolate: true, domain.FieldVitaminK: true, domain.FieldBiotin: true,
	domain.FieldSelenium: true, domain.FieldChromium: true, domain.FieldMolybdenum: true,
	domain.FieldIodine: true, domain.FieldVitaminB12: true,
}

// expectedUnit returns the unit a field is stored in.
func expectedUnit(f domain.NutrientField) massUnit {
	switch {
	case f == domain.FieldCalories:
		return unitKcal
	case f == domain.FieldVitaminA || f == domain.FieldVitaminD:
		return unitIU
	case milligramFields[f]:
		return unitMilligram
	case microgramFields[f]:
		return unitMicrogram
	}
	return unitGram
}

// normalizeUnit folds USDA unit spellings ("G", "MG", "UG", "µg", "KCAL", "IU") to massUnit.
func normalizeUnit(unit string) massUnit {
	u := strings.ToLower(strings.TrimSpace(unit))
	switch u {
	case "ug", "µg", "μg", "mcg":
		return unitMicrogram
	}
	return massUnit(u)
}

var gramsPerUnit = map[massUnit]float64{
	unitGram:      1,
	unitMilligram: 1e-3,
	unitMicrogram: 1e-6,
}

// convertUnit converts value between mass units. IU, energy and unknown units pass
// through unchanged, so vitamin A/D are never numerically converted.
func convertUnit(value float64, from, to massUnit) float64 {
	if from == to {
		return value
	}
	fromFactor, okFrom := gramsPerUnit[from]
	toFactor, okTo := gramsPerUnit[to]
	if !okFrom || !okTo {
		return value
	}
	return value * fromFactor / toFactor
}

// nutrientCode returns the USDA nutrient number of n, falling back to the id table.
func nutrientCode(n domain.USDANutrient) string {
	if code := strings.TrimSpace(n.NutrientNumber); code != "" {
		return code
	}
	return nutrientIDToNumber[n.NutrientID]
}

// MapNutrients maps raw USDA nutrient rows onto canonical fields. Unknown codes are
// dropped, and a value is kept only when it is strictly positive after conversion.
func MapNutrients(raw []domain.USDANutrient) domain.NutrientRecord {
	record := domain.NutrientRecord{}
	aliases := domain.NutrientRecord{}

	for _, n := range raw {
		mapping, ok := nutrientCodes[nutrientCode(n)]
		if !ok {
			continue
		}
		value := convertUnit(n.Value, normalizeUnit(n.UnitName), expectedUnit(mapping.field))
		if !(value > 0) {
			continue
		}
		if mapping.alias {
			if _, seen := aliases[mapping.field]; !seen {
				aliases[mapping.field] = value
			}
			continue
		}
		record[mapping.field] = value
	}

	return record.FillMissing(aliases)
}
