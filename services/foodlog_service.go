package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"calorietrack/apperrors"
	"calorietrack/logger"
	"calorietrack/models"
	"calorietrack/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodLogInput is the client-supplied part of a food log entry. Pointer
// fields distinguish "absent" from zero.
type FoodLogInput struct {
	ImageURL      string   `json:"imageUrl" binding:"required"`
	FoodName      string   `json:"foodName" binding:"required"`
	PortionSize   string   `json:"portionSize" binding:"required"`
	Calories      *float64 `json:"calories" binding:"required,gte=0"`
	Protein       *float64 `json:"protein" binding:"required,gte=0"`
	Carbohydrates *float64 `json:"carbohydrates" binding:"required,gte=0"`
	Fat           *float64 `json:"fat" binding:"required,gte=0"`
	Fiber         *float64 `json:"fiber" binding:"omitempty,gte=0"`
	Sugar         *float64 `json:"sugar" binding:"omitempty,gte=0"`
	Confidence    *float64 `json:"confidence" binding:"omitempty,gte=0,lte=1"`
	MealType      string   `json:"mealType" binding:"omitempty,oneof=breakfast lunch dinner snack other"`
}

// DayLog is one user's entries for a calendar day with their totals.
type DayLog struct {
	Date    string              `json:"date"`
	Logs    []models.FoodLog    `json:"logs"`
	Count   int                 `json:"count"`
	Summary models.DailySummary `json:"summary"`
}

// FoodLogEvent is pushed to a user's realtime subscribers after a change.
type FoodLogEvent struct {
	Kind    string              `json:"kind"`
	EntryID string              `json:"entryId"`
	Summary models.DailySummary `json:"summary"`
}

const (
	EventFoodLogCreated = "foodlog.created"
	EventFoodLogDeleted = "foodlog.deleted"
)

// FoodLogNotifier receives change events. *RealtimeHub implements it.
type FoodLogNotifier interface {
	Broadcast(userID string, payload any) int
}

type FoodLogService struct {
	db       *gorm.DB
	loc      *time.Location
	now      func() time.Time
	notifier FoodLogNotifier
	log      *slog.Logger
}

func NewFoodLogService(db *gorm.DB, loc *time.Location, notifier FoodLogNotifier, log *slog.Logger) *FoodLogService {
	if loc == nil {
		loc = time.Local
	}
	return &FoodLogService{
		db:       db,
		loc:      loc,
		now:      time.Now,
		notifier: notifier,
		log:      logger.Module(log, "foodlog"),
	}
}

// normalize trims the text fields and checks the binding rules.
func (in FoodLogInput) normalize() (FoodLogInput, error) {
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.FoodName = strings.TrimSpace(in.FoodName)
	in.PortionSize = strings.TrimSpace(in.PortionSize)
	in.MealType = strings.TrimSpace(in.MealType)
	if err := utils.ValidateStruct("foodlog.create", in); err != nil {
		return in, err
	}
	return in, nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Create validates and stores a new entry owned by userID.
func (s *FoodLogService) Create(ctx context.Context, userID string, in FoodLogInput) (*models.FoodLog, error) {
	if userID == "" {
		return nil, apperrors.Unauthorized("foodlog.create", "not authenticated")
	}
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}

	meal := models.MealType(in.MealType)
	if meal == "" {
		meal = models.MealOther
	}

	entry := &models.FoodLog{
		UserID:        userID,
		ImageURL:      in.ImageURL,
		FoodName:      in.FoodName,
		PortionSize:   in.PortionSize,
		Calories:      *in.Calories,
		Protein:       *in.Protein,
		Carbohydrates: *in.Carbohydrates,
		Fat:           *in.Fat,
		Fiber:         valueOr(in.Fiber, 0),
		Sugar:         valueOr(in.Sugar, 0),
		Confidence:    in.Confidence,
		MealType:      meal,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.log.ErrorContext(ctx, "create failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("foodlog.create", "failed to create food log", err)
	}
	s.log.InfoContext(ctx, "food log created", "user_id", userID, "entry_id", entry.ID)

	s.notify(ctx, userID, EventFoodLogCreated, entry.ID)
	return entry, nil
}

// ListAll returns every entry of userID, newest first.
func (s *FoodLogService) ListAll(ctx context.Context, userID string) ([]models.FoodLog, error) {
	var logs []models.FoodLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&logs).Error; err != nil {
		s.log.ErrorContext(ctx, "list failed", "user_id", userID, "error", err)
		return nil, apperrors.Internal("foodlog.list", "failed to retrieve food logs", err)
	}
	return logs, nil
}

// ListToday returns userID's entries for the current local day.
func (s *FoodLogService) ListToday(ctx context.Context, userID string) (*DayLog, error) {
	return s.ListByDate(ctx, userID, s.now().In(s.loc))
}

// ListByDate returns userID's entries for day's calendar date, newest first,
// with the day's summary.
func (s *FoodLogService) ListByDate(ctx context.Context, userID string, day time.Time) (*DayLog, error) {
	w := DayWindow(day)

	var logs []models.FoodLog
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, w.Start.UTC(), w.End.UTC()).
		Order("created_at DESC").Order("id DESC").
		Find(&logs).Error; err != nil {
		s.log.ErrorContext(ctx, "list by date failed", "user_id", userID, "date", w.Start.Format(dateLayout), "error", err)
		return nil, apperrors.Internal("foodlog.list_day", "failed to retrieve food logs", err)
	}

	return &DayLog{
		Date:    w.Start.Format(dateLayout),
		Logs:    logs,
		Count:   len(logs),
		Summary: Summarize(logs, day),
	}, nil
}

// find loads an entry and checks that requestingUserID owns it.
func (s *FoodLogService) find(ctx context.Context, op, id, requestingUserID string) (*models.FoodLog, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.InvalidInput(op, "invalid food log ID")
	}

	var entry models.FoodLog
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound(op, "food log not found")
		}
		return nil, apperrors.Internal(op, "failed to load food log", err)
	}
	if entry.UserID != requestingUserID {
		return nil, apperrors.Forbidden(op, "not authorized to access this food log")
	}
	return &entry, nil
}

// Get returns one entry owned by requestingUserID.
func (s *FoodLogService) Get(ctx context.Context, id, requestingUserID string) (*models.FoodLog, error) {
	return s.find(ctx, "foodlog.get", id, requestingUserID)
}

// Delete permanently removes an entry owned by requestingUserID.
func (s *FoodLogService) Delete(ctx context.Context, id, requestingUserID string) error {
	const op = "foodlog.delete"

	entry, err := s.find(ctx, op, id, requestingUserID)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindForbidden {
			s.log.WarnContext(ctx, "delete denied", "entry_id", id, "user_id", requestingUserID)
		}
		return err
	}

	if err := s.db.WithContext(ctx).Unscoped().Delete(&models.FoodLog{}, "id = ?", entry.ID).Error; err != nil {
		s.log.ErrorContext(ctx, "delete failed", "entry_id", id, "error", err)
		return apperrors.Internal(op, "failed to delete food log", err)
	}
	s.log.InfoContext(ctx, "food log deleted", "user_id", requestingUserID, "entry_id", id)

	s.notify(ctx, requestingUserID, EventFoodLogDeleted, id)
	return nil
}

// notify pushes the change and the recomputed day summary. Failures are
// logged only.
func (s *FoodLogService) notify(ctx context.Context, userID, kind, entryID string) {
	if s.notifier == nil {
		return
	}
	today, err := s.ListToday(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "summary for realtime event failed", "user_id", userID, "error", err)
		return
	}
	s.notifier.Broadcast(userID, FoodLogEvent{Kind: kind, EntryID: entryID, Summary: today.Summary})
}
