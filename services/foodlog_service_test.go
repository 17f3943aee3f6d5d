package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"
	"calorietrack/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	s := Summarize(nil, day)
	assert.Equal(t, "2025-03-14", s.Date)
	assert.Zero(t, s.TotalCalories)
	assert.Zero(t, s.TotalSugar)
}

func TestSummarizeDayBoundaries(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	at := func(d, h, m, s, ms int) time.Time {
		return time.Date(2025, 3, d, h, m, s, ms*int(time.Millisecond), time.UTC)
	}
	entries := []models.FoodLog{
		{Calories: 100, Protein: 1.25, CreatedAt: at(14, 0, 0, 0, 0)},
		{Calories: 200, Protein: 2.5, CreatedAt: at(14, 23, 59, 59, 998)},
		{Calories: 400, Protein: 4, CreatedAt: at(15, 0, 0, 0, 2)},
		{Calories: 800, Protein: 8, CreatedAt: at(13, 23, 59, 59, 999)},
	}

	s := Summarize(entries, day)
	assert.Equal(t, 300.0, s.TotalCalories)
	assert.Equal(t, 3.8, s.TotalProtein)
}

func TestSummarizeRoundsOnce(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	var entries []models.FoodLog
	for i := 0; i < 3; i++ {
		entries = append(entries, models.FoodLog{Fat: 0.04, CreatedAt: day})
	}
	// 0.04 rounds to 0.0 individually; the sum 0.12 rounds to 0.1.
	assert.Equal(t, 0.1, Summarize(entries, day).TotalFat)
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+5", 5*3600)
	d, err := ParseDay("2025-03-14", loc)
	require.NoError(t, err)
	assert.Equal(t, loc, d.Location())
	assert.Equal(t, 14, d.Day())

	_, err = ParseDay("14/03/2025", loc)
	assert.Error(t, err)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []FoodLogEvent
}

func (r *recordingNotifier) Broadcast(userID string, payload any) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ev, ok := payload.(FoodLogEvent); ok {
		r.events = append(r.events, ev)
	}
	return 1
}

func newTestFoodLogService(t *testing.T, now time.Time, n FoodLogNotifier) *FoodLogService {
	t.Helper()
	svc := NewFoodLogService(newTestDB(t), time.UTC, n, logger.Discard())
	clock := now
	svc.now = func() time.Time { return clock }
	return svc
}

func validInput() FoodLogInput {
	return FoodLogInput{
		ImageURL:      "https://img.test/a.jpg",
		FoodName:      "Apple",
		PortionSize:   "1 medium",
		Calories:      ptr(95.0),
		Protein:       ptr(0.5),
		Carbohydrates: ptr(25.0),
		Fat:           ptr(0.3),
	}
}

func TestFoodLogCreateDefaults(t *testing.T) {
	now := time.Date(2025, 3, 14, 8, 30, 0, 0, time.UTC)
	n := &recordingNotifier{}
	svc := newTestFoodLogService(t, now, n)

	entry, err := svc.Create(context.Background(), "user-1", validInput())
	require.NoError(t, err)

	_, err = uuid.Parse(entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, "user-1", entry.UserID)
	assert.Equal(t, models.MealOther, entry.MealType)
	assert.Zero(t, entry.Fiber)
	assert.Nil(t, entry.Confidence)
	assert.True(t, entry.CreatedAt.Equal(now))

	require.Len(t, n.events, 1)
	assert.Equal(t, EventFoodLogCreated, n.events[0].Kind)
	assert.Equal(t, entry.ID, n.events[0].EntryID)
	assert.Equal(t, 95.0, n.events[0].Summary.TotalCalories)
}

func TestFoodLogCreateValidation(t *testing.T) {
	svc := newTestFoodLogService(t, time.Now(), nil)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*FoodLogInput)
	}{
		{"missing image", func(in *FoodLogInput) { in.ImageURL = "" }},
		{"blank name", func(in *FoodLogInput) { in.FoodName = "  " }},
		{"missing portion", func(in *FoodLogInput) { in.PortionSize = "" }},
		{"missing calories", func(in *FoodLogInput) { in.Calories = nil }},
		{"negative calories", func(in *FoodLogInput) { in.Calories = ptr(-1.0) }},
		{"negative sugar", func(in *FoodLogInput) { in.Sugar = ptr(-0.1) }},
		{"confidence above one", func(in *FoodLogInput) { in.Confidence = ptr(1.5) }},
		{"unknown meal", func(in *FoodLogInput) { in.MealType = "brunch" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, "user-1", in)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}

	all, err := svc.ListAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, all, "rejected entries are not persisted")

	in := validInput()
	in.FoodName = "   "
	_, err = svc.Create(ctx, "user-1", in)
	assert.Equal(t, "foodName is required", apperrors.PublicMessage(err, ""))

	in = validInput()
	in.MealType = "brunch"
	_, err = svc.Create(ctx, "user-1", in)
	assert.Equal(t, "mealType must be one of breakfast, lunch, dinner, snack, other", apperrors.PublicMessage(err, ""))
}

func TestFoodLogZeroValuesAccepted(t *testing.T) {
	svc := newTestFoodLogService(t, time.Now(), nil)

	in := validInput()
	in.Calories = ptr(0.0)
	in.MealType = "snack"
	in.Confidence = ptr(0.87)
	entry, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	assert.Zero(t, entry.Calories)
	assert.Equal(t, models.MealSnack, entry.MealType)
	require.NotNil(t, entry.Confidence)
	assert.Equal(t, 0.87, *entry.Confidence)
}

func TestFoodLogListNewestFirstAndScoped(t *testing.T) {
	svc := newTestFoodLogService(t, time.Now(), nil)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		clock := base.Add(time.Duration(i) * time.Hour)
		svc.now = func() time.Time { return clock }
		e, err := svc.Create(ctx, "user-1", validInput())
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	_, err := svc.Create(ctx, "user-2", validInput())
	require.NoError(t, err)

	all, err := svc.ListAll(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestFoodLogListByDate(t *testing.T) {
	svc := newTestFoodLogService(t, time.Now(), nil)
	ctx := context.Background()

	create := func(at time.Time, cal float64) {
		svc.now = func() time.Time { return at }
		in := validInput()
		in.Calories = ptr(cal)
		_, err := svc.Create(ctx, "user-1", in)
		require.NoError(t, err)
	}
	create(time.Date(2025, 3, 13, 23, 59, 59, 0, time.UTC), 1000)
	create(time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), 100)
	create(time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC), 250)
	create(time.Date(2025, 3, 14, 23, 59, 59, 0, time.UTC), 50)
	create(time.Date(2025, 3, 15, 0, 0, 1, 0, time.UTC), 2000)

	day, err := svc.ListByDate(ctx, "user-1", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", day.Date)
	assert.Equal(t, 3, day.Count)
	assert.Equal(t, 400.0, day.Summary.TotalCalories)
	assert.Equal(t, 50.0, day.Logs[0].Calories)

	svc.now = func() time.Time { return time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC) }
	today, err := svc.ListToday(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", today.Date)
	assert.Equal(t, 1, today.Count)
	assert.Equal(t, 2000.0, today.Summary.TotalCalories)

	empty, err := svc.ListByDate(ctx, "user-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Zero(t, empty.Summary.TotalCalories)
}

func TestFoodLogListByDateInZoneAtMillisecondEdges(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	svc := NewFoodLogService(newTestDB(t), loc, nil, logger.Discard())
	ctx := context.Background()

	local := func(d, h, m, sec, ms int) time.Time {
		return time.Date(2025, 3, d, h, m, sec, ms*int(time.Millisecond), loc)
	}
	create := func(at time.Time, cal float64) {
		svc.now = func() time.Time { return at }
		in := validInput()
		in.Calories = ptr(cal)
		_, err := svc.Create(ctx, "user-1", in)
		require.NoError(t, err)
	}
	create(local(13, 23, 59, 59, 999), 1000)
	create(local(14, 0, 0, 0, 0), 100)
	// 01:00 UTC on the 15th, still the 14th locally.
	create(local(14, 20, 0, 0, 0), 20)
	create(local(14, 23, 59, 59, 998), 3)
	create(local(15, 0, 0, 0, 2), 4000)

	day, err := svc.ListByDate(ctx, "user-1", local(14, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "2025-03-14", day.Date)
	assert.Equal(t, 3, day.Count)
	assert.Equal(t, 123.0, day.Summary.TotalCalories)

	svc.now = func() time.Time { return local(15, 0, 0, 0, 2).UTC() }
	today, err := svc.ListToday(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-15", today.Date)
	require.Equal(t, 1, today.Count)
	assert.Equal(t, 4000.0, today.Summary.TotalCalories)
}

func TestFoodLogGetAndDeleteOwnership(t *testing.T) {
	n := &recordingNotifier{}
	svc := newTestFoodLogService(t, time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC), n)
	ctx := context.Background()

	entry, err := svc.Create(ctx, "owner", validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, entry.ID, "intruder")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	err = svc.Delete(ctx, entry.ID, "intruder")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	got, err := svc.Get(ctx, entry.ID, "owner")
	require.NoError(t, err, "entry survives a denied delete")
	assert.Equal(t, entry.ID, got.ID)

	_, err = svc.Get(ctx, "not-a-uuid", "owner")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.Get(ctx, uuid.NewString(), "owner")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, entry.ID, "owner"))
	_, err = svc.Get(ctx, entry.ID, "owner")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = svc.Delete(ctx, entry.ID, "owner")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.Len(t, n.events, 2)
	assert.Equal(t, EventFoodLogDeleted, n.events[1].Kind)
	assert.Zero(t, n.events[1].Summary.TotalCalories)
}
