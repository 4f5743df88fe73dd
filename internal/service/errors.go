package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/manos-expertas/scheduling-service/internal/timerange"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrWorkerNotFound  = fmt.Errorf("worker %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)

	ErrInvalidRange        = timerange.ErrInvalidRange
	ErrCapacityExceeded    = errors.New("worker capacity exceeded")
	ErrInvalidTransition   = errors.New("booking status transition not allowed")
	ErrBookingNotCompleted = errors.New("booking must be completed before it can be reviewed")
	ErrReviewExists        = errors.New("booking has already been reviewed")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// CapacityExceededError names the first day on which a booking request does not fit.
type CapacityExceededError struct {
	Date      time.Time
	Booked    float64
	Requested float64
	Capacity  float64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("worker is fully booked on %s: %gh already booked, %gh requested, %gh daily capacity",
		timerange.Format(e.Date), e.Booked, e.Requested, e.Capacity)
}

func (e *CapacityExceededError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
