package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WorkerID  string    `gorm:"type:varchar(36);not null;index" json:"worker_id"`
	UserID    string    `gorm:"type:varchar(36);not null" json:"user_id"`
	BookingID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_review_booking" json:"booking_id"`
	Comment   string    `gorm:"type:text" json:"comment"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
