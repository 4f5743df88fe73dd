package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// transitions lists every permitted status change; completed and cancelled are terminal.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch st := BookingStatus(s); st {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return st, true
	}
	return "", false
}

func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

type Booking struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	WorkerID    string        `gorm:"type:varchar(36);not null;index:idx_booking_worker_range" json:"worker_id"`
	UserID      string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	StartDate   time.Time     `gorm:"not null;index:idx_booking_worker_range" json:"start_date"`
	EndDate     time.Time     `gorm:"not null;index:idx_booking_worker_range" json:"end_date"`
	HoursPerDay float64       `gorm:"not null" json:"hours_per_day"`
	TotalHours  float64       `gorm:"not null" json:"total_hours"`
	Status      BookingStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Completed   bool          `gorm:"not null;default:false" json:"completed"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Worker *Worker `gorm:"foreignKey:WorkerID" json:"worker,omitempty"`
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
