package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/repository"
	"github.com/manos-expertas/scheduling-service/internal/timerange"
	"gorm.io/gorm"
)

// DayAvailability is one row of a worker's availability report.
type DayAvailability struct {
	Date           time.Time
	HoursBooked    float64
	HoursAvailable float64
	IsFullyBooked  bool
}

type AvailabilityService interface {
	Availability(ctx context.Context, workerID string, start, end time.Time) ([]DayAvailability, error)
	AvailableHours(ctx context.Context, workerID string, date time.Time) (float64, error)
}

type availabilityService struct {
	bookingRepo    repository.BookingRepository
	workerRepo     repository.WorkerRepository
	maxHoursPerDay float64
}

func NewAvailabilityService(bookingRepo repository.BookingRepository, workerRepo repository.WorkerRepository, maxHoursPerDay float64) AvailabilityService {
	return &availabilityService{
		bookingRepo:    bookingRepo,
		workerRepo:     workerRepo,
		maxHoursPerDay: maxHoursPerDay,
	}
}

func (s *availabilityService) Availability(ctx context.Context, workerID string, start, end time.Time) ([]DayAvailability, error) {
	start, end = timerange.Day(start), timerange.Day(end)
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	if _, err := s.workerRepo.FindByID(ctx, workerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("find worker: %w", err)
	}

	bookings, err := s.bookingRepo.FindActiveOverlapping(ctx, s.bookingRepo.GetDB(), workerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}

	return dailyLedger(bookings, start, end, s.maxHoursPerDay), nil
}

func (s *availabilityService) AvailableHours(ctx context.Context, workerID string, date time.Time) (float64, error) {
	days, err := s.Availability(ctx, workerID, date, date)
	if err != nil {
		return 0, err
	}
	return days[0].HoursAvailable, nil
}

// dailyLedger sums hoursPerDay per calendar day of [start, end] over the given bookings.
// Over-committed days are reported with zero availability rather than a negative figure.
func dailyLedger(bookings []models.Booking, start, end time.Time, capacity float64) []DayAvailability {
	relevant := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status != models.StatusCancelled && timerange.RangesOverlap(b.StartDate, b.EndDate, start, end) {
			relevant = append(relevant, b)
		}
	}

	var days []DayAvailability
	for day := range timerange.EnumerateDays(start, end) {
		var booked float64
		for _, b := range relevant {
			if timerange.Contains(b.StartDate, b.EndDate, day) {
				booked += b.HoursPerDay
			}
		}
		available := max(capacity-booked, 0)
		days = append(days, DayAvailability{
			Date:           day,
			HoursBooked:    booked,
			HoursAvailable: available,
			IsFullyBooked:  available <= 0,
		})
	}
	return days
}
