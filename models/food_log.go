package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealOther     MealType = "other"
)

// FoodLog is one consumed item. Entries are created and deleted, never
// updated; deletion is permanent.
type FoodLog struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID        string    `gorm:"type:varchar(36);index:idx_food_logs_user_created,priority:1;not null" json:"userId"`
	ImageURL      string    `gorm:"not null" json:"imageUrl"`
	FoodName      string    `gorm:"not null" json:"foodName"`
	PortionSize   string    `gorm:"not null" json:"portionSize"`
	Calories      float64   `gorm:"not null" json:"calories"`
	Protein       float64   `gorm:"not null" json:"protein"`
	Carbohydrates float64   `gorm:"not null" json:"carbohydrates"`
	Fat           float64   `gorm:"not null" json:"fat"`
	Fiber         float64   `gorm:"not null;default:0" json:"fiber"`
	Sugar         float64   `gorm:"not null;default:0" json:"sugar"`
	Confidence    *float64  `json:"confidence,omitempty"`
	MealType      MealType  `gorm:"type:varchar(16);not null;default:other" json:"mealType"`
	CreatedAt     time.Time `gorm:"index:idx_food_logs_user_created,priority:2" json:"createdAt"`
}

func (f *FoodLog) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
