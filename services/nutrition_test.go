package services

import (
	"math"
	"testing"

	"calorietrack/apperrors"
	"calorietrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractNutrientsFirstMatchWins(t *testing.T) {
	t.Parallel()

	raw := []models.RawNutrient{
		{Name: "Protein", Amount: 11, Unit: "g"},
		{Name: "Energy", Amount: 266, Unit: "kcal"},
		{Name: "Energy", Amount: 1113, Unit: "kJ"},
		{Name: "Total lipid (fat)", Amount: 9.7, Unit: "g"},
		{Name: "Carbohydrate, by difference", Amount: 33.3, Unit: "g"},
		{Name: "Fiber, total dietary", Amount: 2.3, Unit: "g"},
		{Name: "Sugars, total including NLEA", Amount: 3.6, Unit: "g"},
		{Name: "Sodium, Na", Amount: 598, Unit: "mg"},
		{Name: "Cholesterol", Amount: 17, Unit: "mg"},
	}

	rec := ExtractNutrients(raw)
	assert.Equal(t, 266.0, rec.Calories)
	assert.Equal(t, 11.0, rec.Protein)
	assert.Equal(t, 33.3, rec.Carbohydrates)
	assert.Equal(t, 9.7, rec.Fat)
	assert.Equal(t, 2.3, rec.Fiber)
	assert.Equal(t, 3.6, rec.Sugar)
	assert.Equal(t, 598.0, rec.Sodium)
	assert.Equal(t, 17.0, rec.Cholesterol)
	assert.Equal(t, 100.0, rec.BaseQuantity)
	assert.Equal(t, "g", rec.BaseUnit)
	assert.Len(t, rec.RawNutrients, len(raw))
}

func TestExtractNutrientsAlternates(t *testing.T) {
	t.Parallel()

	rec := ExtractNutrients([]models.RawNutrient{
		{Name: "Energy", Amount: 0},
		{Name: "Calories", Amount: 52},
		{Name: "Fatty acids, total saturated", Amount: 1.5},
	})
	assert.Equal(t, 52.0, rec.Calories, "zero primary falls through to alternate")
	assert.Equal(t, 1.5, rec.Fat, "fat alternate matches when no total lipid entry exists")
}

func TestExtractNutrientsTotal(t *testing.T) {
	t.Parallel()

	rec := ExtractNutrients(nil)
	assert.Zero(t, rec.Calories)
	assert.Zero(t, rec.Cholesterol)
	assert.Empty(t, rec.RawNutrients)

	rec = ExtractNutrients([]models.RawNutrient{{Name: "Protein", Amount: -3}})
	assert.Zero(t, rec.Protein)
}

func TestBuildNutritionRecordRequiresID(t *testing.T) {
	t.Parallel()

	_, err := BuildNutritionRecord(" ", "Apple", models.SourceFoundation, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	rec, err := BuildNutritionRecord("171688", "Apple", models.SourceFoundation, []models.RawNutrient{{Name: "Energy", Amount: 52}})
	require.NoError(t, err)
	assert.Equal(t, "171688", rec.ExternalID)
	assert.Equal(t, "Apple", rec.DisplayName)
	assert.Equal(t, 100.0, rec.ServingSize)
}

func TestScalePortion(t *testing.T) {
	t.Parallel()

	rec := models.NutritionRecord{
		DisplayName:   "Rice",
		BaseQuantity:  100,
		BaseUnit:      "g",
		Calories:      200,
		Protein:       10,
		Carbohydrates: 44.44,
		Fat:           0.6,
		Sodium:        5,
	}

	half, err := ScalePortion(rec, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(100), half.Calories)
	assert.Equal(t, 5.0, half.Protein)
	assert.Equal(t, 22.2, half.Carbohydrates)
	assert.Equal(t, 0.3, half.Fat)
	assert.Equal(t, int64(3), half.Sodium)
	assert.Equal(t, "Rice", half.DisplayName)
	assert.Equal(t, "g", half.PortionUnit)

	same, err := ScalePortion(rec, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), same.Calories)
	assert.Equal(t, 10.0, same.Protein)

	double, err := ScalePortion(rec, 200)
	require.NoError(t, err)
	assert.Equal(t, 2*same.Calories, double.Calories)
	assert.Equal(t, 20.0, double.Protein)

	for _, g := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := ScalePortion(rec, g)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, "grams=%v", g)
	}
}

func TestScalePortionZeroBaseUsesHundred(t *testing.T) {
	t.Parallel()

	out, err := ScalePortion(models.NutritionRecord{Calories: 80}, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(40), out.Calories)
}

func TestPortionToGrams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		qty  float64
		unit string
		want float64
	}{
		{150, "", 150},
		{150, "g", 150},
		{2, "KG", 2000},
		{500, "mg", 0.5},
		{1, "lb", 453.59237},
	}
	for _, tt := range tests {
		got, err := PortionToGrams(tt.qty, tt.unit)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "%v %s", tt.qty, tt.unit)
	}

	_, err := PortionToGrams(1, "cup")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = PortionToGrams(0, "g")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
