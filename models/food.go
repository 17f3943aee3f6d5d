package models

import "time"

// Source categories reported by USDA FoodData Central, normalized.
const (
	SourceSurvey     = "survey"
	SourceBranded    = "branded"
	SourceFoundation = "foundation"
	SourceLegacy     = "legacy"
	SourceOther      = "other"
)

// FoodCandidate is one search hit. Not persisted.
type FoodCandidate struct {
	ExternalID     string  `json:"fdcId"`
	DisplayName    string  `json:"description"`
	BrandName      string  `json:"brandName,omitempty"`
	SourceCategory string  `json:"dataType"`
	RelevanceScore float64 `json:"score"`
}

// RawNutrient is one entry of the source nutrient list, kept for display.
type RawNutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// NutritionRecord holds nutrient amounts per BaseQuantity of BaseUnit.
// ServingSize is the label serving reported by the source and is display
// only; scaling always uses BaseQuantity.
type NutritionRecord struct {
	ExternalID      string        `json:"fdcId"`
	DisplayName     string        `json:"description"`
	SourceCategory  string        `json:"dataType"`
	BaseQuantity    float64       `json:"baseQuantity"`
	BaseUnit        string        `json:"baseUnit"`
	ServingSize     float64       `json:"servingSize"`
	ServingSizeUnit string        `json:"servingSizeUnit"`
	Calories        float64       `json:"calories"`
	Protein         float64       `json:"protein"`
	Carbohydrates   float64       `json:"carbohydrates"`
	Fat             float64       `json:"fat"`
	Fiber           float64       `json:"fiber"`
	Sugar           float64       `json:"sugar"`
	Sodium          float64       `json:"sodium"`
	Cholesterol     float64       `json:"cholesterol"`
	RawNutrients    []RawNutrient `json:"allNutrients"`
}

// PortionNutrition is a NutritionRecord scaled to a portion.
type PortionNutrition struct {
	DisplayName   string  `json:"description"`
	PortionSize   float64 `json:"portionSize"`
	PortionUnit   string  `json:"portionUnit"`
	PortionGrams  float64 `json:"portionGrams"`
	Calories      int64   `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Fiber         float64 `json:"fiber"`
	Sugar         float64 `json:"sugar"`
	Sodium        int64   `json:"sodium"`
	Cholesterol   int64   `json:"cholesterol"`
}

// DailySummary totals one user's entries for a calendar day.
type DailySummary struct {
	Date          string  `json:"date"`
	TotalCalories float64 `json:"totalCalories"`
	TotalProtein  float64 `json:"totalProtein"`
	TotalCarbs    float64 `json:"totalCarbs"`
	TotalFat      float64 `json:"totalFat"`
	TotalFiber    float64 `json:"totalFiber"`
	TotalSugar    float64 `json:"totalSugar"`
}

// DayWindow is the inclusive [Start, End] range of a calendar day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
