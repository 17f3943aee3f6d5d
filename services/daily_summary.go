package services

import (
	"math"
	"time"

	"calorietrack/models"
)

const dateLayout = "2006-01-02"

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// DayWindow returns [00:00:00.000, 23:59:59.999] of day's calendar date in
// day's location.
func DayWindow(day time.Time) models.DayWindow {
	return models.DayWindow{Start: dayStart(day), End: dayEnd(day)}
}

// ParseDay parses YYYY-MM-DD as a calendar date in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

// Summarize totals the entries created within day's window. Sums are
// rounded once, after accumulation.
func Summarize(entries []models.FoodLog, day time.Time) models.DailySummary {
	w := DayWindow(day)

	var cal, protein, carbs, fat, fiber, sugar float64
	for _, e := range entries {
		if !w.Contains(e.CreatedAt) {
			continue
		}
		cal += e.Calories
		protein += e.Protein
		carbs += e.Carbohydrates
		fat += e.Fat
		fiber += e.Fiber
		sugar += e.Sugar
	}

	return models.DailySummary{
		Date:          w.Start.Format(dateLayout),
		TotalCalories: round1(cal),
		TotalProtein:  round1(protein),
		TotalCarbs:    round1(carbs),
		TotalFat:      round1(fat),
		TotalFiber:    round1(fiber),
		TotalSugar:    round1(sugar),
	}
}
