package dto

import (
	"time"

	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"github.com/manos-expertas/scheduling-service/internal/timerange"
)

type PartyResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LastName   string `json:"lastName"`
	Profession string `json:"profession,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

type BookingResponse struct {
	ID          string               `json:"id"`
	WorkerID    string               `json:"workerId"`
	UserID      string               `json:"userId"`
	StartDate   string               `json:"startDate"`
	EndDate     string               `json:"endDate"`
	HoursPerDay float64              `json:"hoursPerDay"`
	TotalHours  float64              `json:"totalHours"`
	Status      models.BookingStatus `json:"status"`
	Completed   bool                 `json:"completed"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`

	Worker *PartyResponse `json:"worker,omitempty"`
	User   *PartyResponse `json:"user,omitempty"`
}

type DayAvailabilityResponse struct {
	Date           string  `json:"date"`
	HoursBooked    float64 `json:"hoursBooked"`
	HoursAvailable float64 `json:"hoursAvailable"`
	IsFullyBooked  bool    `json:"isFullyBooked"`
}

type AvailabilityResponse struct {
	WorkerID string                    `json:"workerId"`
	Days     []DayAvailabilityResponse `json:"days"`
}

type DayHoursResponse struct {
	WorkerID       string  `json:"workerId"`
	Date           string  `json:"date"`
	AvailableHours float64 `json:"availableHours"`
}

type ReviewResponse struct {
	ID        string    `json:"id"`
	WorkerID  string    `json:"workerId"`
	UserID    string    `json:"userId"`
	BookingID string    `json:"bookingId"`
	Comment   string    `json:"comment,omitempty"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"createdAt"`
}

type AverageRatingResponse struct {
	WorkerID      string  `json:"workerId"`
	AverageRating float64 `json:"averageRating"`
}

type ReviewCountResponse struct {
	WorkerID string `json:"workerId"`
	Count    int64  `json:"count"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		WorkerID:    b.WorkerID,
		UserID:      b.UserID,
		StartDate:   timerange.Format(b.StartDate),
		EndDate:     timerange.Format(b.EndDate),
		HoursPerDay: b.HoursPerDay,
		TotalHours:  b.TotalHours,
		Status:      b.Status,
		Completed:   b.Completed,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.Worker != nil {
		resp.Worker = &PartyResponse{
			ID:         b.Worker.ID,
			Name:       b.Worker.Name,
			LastName:   b.Worker.LastName,
			Profession: b.Worker.Profession,
			Phone:      b.Worker.Phone,
		}
	}
	if b.User != nil {
		resp.User = &PartyResponse{
			ID:       b.User.ID,
			Name:     b.User.Name,
			LastName: b.User.LastName,
			Email:    b.User.Email,
			Phone:    b.User.Phone,
		}
	}
	return resp
}

func ToBookingResponses(bookings []models.Booking) []BookingResponse {
	resp := make([]BookingResponse, len(bookings))
	for i := range bookings {
		resp[i] = ToBookingResponse(&bookings[i])
	}
	return resp
}

func ToAvailabilityResponse(workerID string, days []service.DayAvailability) AvailabilityResponse {
	resp := AvailabilityResponse{WorkerID: workerID, Days: make([]DayAvailabilityResponse, len(days))}
	for i, day := range days {
		resp.Days[i] = DayAvailabilityResponse{
			Date:           timerange.Format(day.Date),
			HoursBooked:    day.HoursBooked,
			HoursAvailable: day.HoursAvailable,
			IsFullyBooked:  day.IsFullyBooked,
		}
	}
	return resp
}

func ToReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		WorkerID:  r.WorkerID,
		UserID:    r.UserID,
		BookingID: r.BookingID,
		Comment:   r.Comment,
		Rating:    r.Rating,
		CreatedAt: r.CreatedAt,
	}
}
