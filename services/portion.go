package services

import (
	"fmt"
	"math"
	"strings"

	"calorietrack/apperrors"
	"calorietrack/models"
)

// gramsPerUnit converts supported portion units to grams.
var gramsPerUnit = map[string]float64{
	"mg":  0.001,
	"g":   1,
	"kg":  1000,
	"oz":  28.349523125,
	"lb":  453.59237,
	"lbs": 453.59237,
}

// PortionToGrams converts a quantity in unit to grams. An empty unit means grams.
func PortionToGrams(quantity float64, unit string) (float64, error) {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		u = "g"
	}
	factor, ok := gramsPerUnit[u]
	if !ok {
		return 0, apperrors.InvalidInput("portion.convert", fmt.Sprintf("unsupported portion unit %q", unit))
	}
	if !validQuantity(quantity) {
		return 0, apperrors.InvalidInput("portion.convert", "portion size must be greater than 0")
	}
	return quantity * factor, nil
}

func validQuantity(q float64) bool {
	return q > 0 && !math.IsNaN(q) && !math.IsInf(q, 0)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }

func roundInt(x float64) int64 { return int64(math.Round(x)) }

// ScalePortion scales a record to portionGrams. Calories, sodium and
// cholesterol are rounded to whole numbers; the other nutrients to one
// decimal place.
func ScalePortion(rec models.NutritionRecord, portionGrams float64) (models.PortionNutrition, error) {
	if !validQuantity(portionGrams) {
		return models.PortionNutrition{}, apperrors.InvalidInput("portion.scale", "portion size must be greater than 0")
	}

	base := rec.BaseQuantity
	if base <= 0 {
		base = 100
	}
	m := portionGrams / base

	return models.PortionNutrition{
		DisplayName:   rec.DisplayName,
		PortionSize:   portionGrams,
		PortionUnit:   "g",
		PortionGrams:  portionGrams,
		Calories:      roundInt(rec.Calories * m),
		Protein:       round1(rec.Protein * m),
		Carbohydrates: round1(rec.Carbohydrates * m),
		Fat:           round1(rec.Fat * m),
		Fiber:         round1(rec.Fiber * m),
		Sugar:         round1(rec.Sugar * m),
		Sodium:        roundInt(rec.Sodium * m),
		Cholesterol:   roundInt(rec.Cholesterol * m),
	}, nil
}
