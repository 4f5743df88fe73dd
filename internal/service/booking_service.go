package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/repository"
	"github.com/manos-expertas/scheduling-service/internal/timerange"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// capacityEpsilon absorbs float rounding when summing fractional hours.
const capacityEpsilon = 1e-9

type CreateBookingInput struct {
	WorkerID    string
	UserID      string
	StartDate   time.Time
	EndDate     time.Time
	HoursPerDay float64
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID string, status string) (*models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
}

type bookingService struct {
	bookingRepo    repository.BookingRepository
	workerRepo     repository.WorkerRepository
	userRepo       repository.UserRepository
	maxHoursPerDay float64
	log            *zap.Logger
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	workerRepo repository.WorkerRepository,
	userRepo repository.UserRepository,
	maxHoursPerDay float64,
	log *zap.Logger,
) BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &bookingService{
		bookingRepo:    bookingRepo,
		workerRepo:     workerRepo,
		userRepo:       userRepo,
		maxHoursPerDay: maxHoursPerDay,
		log:            log,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if in.WorkerID == "" {
		return nil, invalid("worker", "is required")
	}
	if in.UserID == "" {
		return nil, invalid("user", "is required")
	}
	if in.HoursPerDay <= 0 || in.HoursPerDay > s.maxHoursPerDay {
		return nil, invalid("hoursPerDay", "must be greater than 0 and at most %g", s.maxHoursPerDay)
	}

	start, end := timerange.Day(in.StartDate), timerange.Day(in.EndDate)
	days, err := timerange.DaysBetweenInclusive(start, end)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, in.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	var result *models.Booking

	err = s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Lock the worker row: serializes concurrent bookings for the same worker
		if _, err := s.workerRepo.FindByIDForUpdate(ctx, tx, in.WorkerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWorkerNotFound
			}
			return fmt.Errorf("lock worker: %w", err)
		}

		// 2. Load every active booking touching the requested range in one read
		existing, err := s.bookingRepo.FindActiveOverlapping(ctx, tx, in.WorkerID, start, end)
		if err != nil {
			return fmt.Errorf("find overlapping bookings: %w", err)
		}

		// 3. First day that cannot absorb the new hours rejects the whole request
		for _, day := range dailyLedger(existing, start, end, s.maxHoursPerDay) {
			if day.HoursBooked+in.HoursPerDay > s.maxHoursPerDay+capacityEpsilon {
				return &CapacityExceededError{
					Date:      day.Date,
					Booked:    day.HoursBooked,
					Requested: in.HoursPerDay,
					Capacity:  s.maxHoursPerDay,
				}
			}
		}

		booking := &models.Booking{
			WorkerID:    in.WorkerID,
			UserID:      in.UserID,
			StartDate:   start,
			EndDate:     end,
			HoursPerDay: in.HoursPerDay,
			TotalHours:  float64(days) * in.HoursPerDay,
			Status:      models.StatusPending,
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", result.ID),
		zap.String("worker_id", result.WorkerID),
		zap.String("start_date", timerange.Format(result.StartDate)),
		zap.String("end_date", timerange.Format(result.EndDate)),
		zap.Float64("total_hours", result.TotalHours),
	)
	return result, nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, bookingID string, status string) (*models.Booking, error) {
	next, ok := models.ParseBookingStatus(status)
	if !ok {
		return nil, invalid("status", "must be one of pending, confirmed, completed, cancelled")
	}

	var result *models.Booking

	err := s.bookingRepo.GetDB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		booking, err := s.bookingRepo.FindByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("find booking: %w", err)
		}

		if booking.Status.Terminal() {
			return fmt.Errorf("%w: booking is already %s", ErrInvalidTransition, booking.Status)
		}
		if !booking.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, next)
		}

		if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, next); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}

		booking.Status = next
		booking.Completed = next == models.StatusCompleted
		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking status changed", zap.String("booking_id", result.ID), zap.String("status", string(result.Status)))
	return result, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByIDWithParties(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) ListByWorker(ctx context.Context, workerID string) ([]models.Booking, error) {
	return s.bookingRepo.FindByWorker(ctx, workerID)
}

func (s *bookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.bookingRepo.FindByUser(ctx, userID)
}
