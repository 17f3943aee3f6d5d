package services

import (
	"strings"

	"calorietrack/apperrors"
	"calorietrack/models"
)

// nutrientKey maps a record field to the substrings that identify it in a
// source nutrient name. Alternates are tried in order.
type nutrientKey struct {
	field      string
	substrings []string
}

// Order matters: each key takes the first matching entry of the raw list.
// "fat" as a fallback will match names like "Fatty acids, total saturated"
// when no "Total lipid" entry exists.
var nutrientKeys = []nutrientKey{
	{"calories", []string{"energy", "calories"}},
	{"protein", []string{"protein"}},
	{"carbohydrates", []string{"carbohydrate"}},
	{"fat", []string{"total lipid", "fat"}},
	{"fiber", []string{"fiber"}},
	{"sugar", []string{"sugars"}},
	{"sodium", []string{"sodium"}},
	{"cholesterol", []string{"cholesterol"}},
}

// firstMatch returns the amount of the first entry whose lower-cased name
// contains sub, and whether one was found.
func firstMatch(raw []models.RawNutrient, sub string) (float64, bool) {
	for _, n := range raw {
		if strings.Contains(strings.ToLower(n.Name), sub) {
			return n.Amount, true
		}
	}
	return 0, false
}

// lookupNutrient resolves one key. An alternate is used when the previous
// substring had no match or matched a zero amount.
func lookupNutrient(raw []models.RawNutrient, k nutrientKey) float64 {
	for _, sub := range k.substrings {
		if v, ok := firstMatch(raw, sub); ok && v != 0 {
			if v < 0 {
				return 0
			}
			return v
		}
	}
	return 0
}

// ExtractNutrients fills the nutrient fields of a record from a raw nutrient
// list. It never fails; nutrients that are absent are zero.
func ExtractNutrients(raw []models.RawNutrient) models.NutritionRecord {
	values := make(map[string]float64, len(nutrientKeys))
	for _, k := range nutrientKeys {
		values[k.field] = lookupNutrient(raw, k)
	}

	list := make([]models.RawNutrient, len(raw))
	copy(list, raw)

	return models.NutritionRecord{
		BaseQuantity:  100,
		BaseUnit:      "g",
		Calories:      values["calories"],
		Protein:       values["protein"],
		Carbohydrates: values["carbohydrates"],
		Fat:           values["fat"],
		Fiber:         values["fiber"],
		Sugar:         values["sugar"],
		Sodium:        values["sodium"],
		Cholesterol:   values["cholesterol"],
		RawNutrients:  list,
	}
}

// BuildNutritionRecord extracts nutrients and attaches the identifying
// fields. Amounts are per 100 g.
func BuildNutritionRecord(externalID, name, category string, raw []models.RawNutrient) (models.NutritionRecord, error) {
	if strings.TrimSpace(externalID) == "" {
		return models.NutritionRecord{}, apperrors.InvalidInput("nutrition.build", "food id is required")
	}

	rec := ExtractNutrients(raw)
	rec.ExternalID = externalID
	rec.DisplayName = name
	rec.SourceCategory = category
	rec.ServingSize = rec.BaseQuantity
	rec.ServingSizeUnit = rec.BaseUnit
	return rec, nil
}
