package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/manos-expertas/scheduling-service/internal/dto"
	"github.com/manos-expertas/scheduling-service/internal/middleware"
	"github.com/manos-expertas/scheduling-service/internal/models"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	workerID  = "9a0e6f3c-1111-4000-8000-000000000001"
	userID    = "2b7d1e44-2222-4000-8000-000000000001"
	bookingID = "5c3a9d10-3333-4000-8000-000000000001"
)

// --- Mock BookingService ---

type mockBookingService struct {
	createFn       func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error)
	updateStatusFn func(ctx context.Context, id string, status string) (*models.Booking, error)
	getFn          func(ctx context.Context, id string) (*models.Booking, error)
	listByWorkerFn func(ctx context.Context, workerID string) ([]models.Booking, error)
	listByUserFn   func(ctx context.Context, userID string) ([]models.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, in)
}
func (m *mockBookingService) UpdateStatus(ctx context.Context, id string, status string) (*models.Booking, error) {
	return m.updateStatusFn(ctx, id, status)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockBookingService) ListByWorker(ctx context.Context, workerID string) ([]models.Booking, error) {
	return m.listByWorkerFn(ctx, workerID)
}
func (m *mockBookingService) ListByUser(ctx context.Context, userID string) ([]models.Booking, error) {
	return m.listByUserFn(ctx, userID)
}

// --- Mock AvailabilityService ---

type mockAvailabilityService struct {
	availabilityFn func(ctx context.Context, workerID string, start, end time.Time) ([]service.DayAvailability, error)
	hoursFn        func(ctx context.Context, workerID string, date time.Time) (float64, error)
}

func (m *mockAvailabilityService) Availability(ctx context.Context, workerID string, start, end time.Time) ([]service.DayAvailability, error) {
	return m.availabilityFn(ctx, workerID, start, end)
}
func (m *mockAvailabilityService) AvailableHours(ctx context.Context, workerID string, date time.Time) (float64, error) {
	return m.hoursFn(ctx, workerID, date)
}

// --- Mock Notifier ---

type mockNotifier struct {
	keys []string
	err  error
}

func (m *mockNotifier) Publish(routingKey string, payload any) error {
	m.keys = append(m.keys, routingKey)
	return m.err
}

// --- Helpers ---

func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = middleware.NewValidator()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpErr(t *testing.T, err error) *echo.HTTPError {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	return he
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:          bookingID,
		WorkerID:    workerID,
		UserID:      userID,
		StartDate:   day(2024, 6, 1),
		EndDate:     day(2024, 6, 3),
		HoursPerDay: 4,
		TotalHours:  12,
		Status:      models.StatusPending,
	}
}

const createBody = `{"worker":"` + workerID + `","user":"` + userID + `","startDate":"2024-06-01","endDate":"2024-06-03","hoursPerDay":4}`

// --- Tests ---

func TestCreateBooking_Handler_Success(t *testing.T) {
	var captured service.CreateBookingInput
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			captured = in
			return sampleBooking(), nil
		},
	}
	notifier := &mockNotifier{}

	c, rec := newContext(http.MethodPost, "/api/v1/bookings", createBody)
	h := NewBookingHandler(svc, nil, notifier, 366, nil)
	err := h.CreateBooking(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, day(2024, 6, 1), captured.StartDate)
	assert.Equal(t, day(2024, 6, 3), captured.EndDate)
	assert.Equal(t, 4.0, captured.HoursPerDay)
	assert.Equal(t, []string{"booking.created"}, notifier.keys)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, bookingID, resp.ID)
	assert.Equal(t, "2024-06-01", resp.StartDate)
	assert.Equal(t, 12.0, resp.TotalHours)
	assert.Equal(t, models.StatusPending, resp.Status)
}

func TestCreateBooking_Handler_NotifierFailureIgnored(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			return sampleBooking(), nil
		},
	}

	c, rec := newContext(http.MethodPost, "/api/v1/bookings", createBody)
	h := NewBookingHandler(svc, nil, &mockNotifier{err: errors.New("broker down")}, 366, nil)

	assert.NoError(t, h.CreateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateBooking_Handler_MissingField(t *testing.T) {
	body := `{"worker":"` + workerID + `","startDate":"2024-06-01","endDate":"2024-06-03","hoursPerDay":4}`
	c, _ := newContext(http.MethodPost, "/api/v1/bookings", body)

	h := NewBookingHandler(nil, nil, nil, 366, nil)
	he := httpErr(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
	resp, ok := he.Message.(dto.ErrorResponse)
	require.True(t, ok)
	assert.Equal(t, "user", resp.Field)
}

func TestCreateBooking_Handler_BadWorkerID(t *testing.T) {
	body := `{"worker":"abc","user":"` + userID + `","startDate":"2024-06-01","endDate":"2024-06-03","hoursPerDay":4}`
	c, _ := newContext(http.MethodPost, "/api/v1/bookings", body)

	h := NewBookingHandler(nil, nil, nil, 366, nil)
	he := httpErr(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "worker", he.Message.(dto.ErrorResponse).Field)
}

func TestCreateBooking_Handler_BadDate(t *testing.T) {
	body := `{"worker":"` + workerID + `","user":"` + userID + `","startDate":"06/01/2024","endDate":"2024-06-03","hoursPerDay":4}`
	c, _ := newContext(http.MethodPost, "/api/v1/bookings", body)

	h := NewBookingHandler(nil, nil, nil, 366, nil)
	he := httpErr(t, h.CreateBooking(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "startDate", he.Message.(dto.ErrorResponse).Field)
}

func TestCreateBooking_Handler_ServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"capacity", &service.CapacityExceededError{Date: day(2024, 6, 1), Booked: 5, Requested: 4, Capacity: 8}, http.StatusBadRequest},
		{"invalid range", service.ErrInvalidRange, http.StatusBadRequest},
		{"validation", &service.ValidationError{Field: "hoursPerDay", Message: "too many"}, http.StatusBadRequest},
		{"unknown worker", service.ErrWorkerNotFound, http.StatusBadRequest},
		{"unknown user", service.ErrUserNotFound, http.StatusBadRequest},
		{"storage", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
					return nil, tc.err
				},
			}
			notifier := &mockNotifier{}
			c, _ := newContext(http.MethodPost, "/api/v1/bookings", createBody)

			h := NewBookingHandler(svc, nil, notifier, 366, nil)
			he := httpErr(t, h.CreateBooking(c))

			assert.Equal(t, tc.code, he.Code)
			assert.Empty(t, notifier.keys, "no notification on failure")
		})
	}
}

func TestCreateBooking_Handler_CapacityMessageNamesDate(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
			return nil, &service.CapacityExceededError{Date: day(2024, 6, 1), Booked: 5, Requested: 4, Capacity: 8}
		},
	}
	c, _ := newContext(http.MethodPost, "/api/v1/bookings", createBody)

	he := httpErr(t, NewBookingHandler(svc, nil, nil, 366, nil).CreateBooking(c))

	assert.Contains(t, he.Message, "2024-06-01")
}

func TestGetBooking_Handler_Success(t *testing.T) {
	svc := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			b := sampleBooking()
			b.Worker = &models.Worker{ID: workerID, Name: "Lucía", Profession: "plumber"}
			b.User = &models.User{ID: userID, Name: "Mateo", Email: "mateo@example.com"}
			return b, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings/"+bookingID, "")
	c.SetParamNames("id")
	c.SetParamValues(bookingID)

	err := NewBookingHandler(svc, nil, nil, 366, nil).GetBooking(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Worker)
	assert.Equal(t, "plumber", resp.Worker.Profession)
	require.NotNil(t, resp.User)
	assert.Equal(t, "mateo@example.com", resp.User.Email)
}

func TestGetBooking_Handler_InvalidID(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/bookings/abc", "")
	c.SetParamNames("id")
	c.SetParamValues("abc")

	he := httpErr(t, NewBookingHandler(nil, nil, nil, 366, nil).GetBooking(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetBooking_Handler_NotFound(t *testing.T) {
	svc := &mockBookingService{
		getFn: func(ctx context.Context, id string) (*models.Booking, error) {
			return nil, service.ErrBookingNotFound
		},
	}

	c, _ := newContext(http.MethodGet, "/api/v1/bookings/"+bookingID, "")
	c.SetParamNames("id")
	c.SetParamValues(bookingID)

	he := httpErr(t, NewBookingHandler(svc, nil, nil, 366, nil).GetBooking(c))

	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestListByWorker_Handler_Success(t *testing.T) {
	var capturedWorker string
	svc := &mockBookingService{
		listByWorkerFn: func(ctx context.Context, id string) ([]models.Booking, error) {
			capturedWorker = id
			return []models.Booking{*sampleBooking(), *sampleBooking()}, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings/worker/"+workerID, "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	err := NewBookingHandler(svc, nil, nil, 366, nil).ListByWorker(c)

	assert.NoError(t, err)
	assert.Equal(t, workerID, capturedWorker)

	var resp []dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestListByUser_Handler_Empty(t *testing.T) {
	svc := &mockBookingService{
		listByUserFn: func(ctx context.Context, id string) ([]models.Booking, error) {
			return nil, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings/user/"+userID, "")
	c.SetParamNames("userId")
	c.SetParamValues(userID)

	err := NewBookingHandler(svc, nil, nil, 366, nil).ListByUser(c)

	assert.NoError(t, err)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetAvailability_Handler_SingleDate(t *testing.T) {
	avail := &mockAvailabilityService{
		hoursFn: func(ctx context.Context, id string, date time.Time) (float64, error) {
			assert.Equal(t, day(2024, 6, 2), date)
			return 4, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings/availability/"+workerID+"?date=2024-06-02", "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	err := NewBookingHandler(nil, avail, nil, 366, nil).GetAvailability(c)

	assert.NoError(t, err)
	var resp dto.DayHoursResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4.0, resp.AvailableHours)
	assert.Equal(t, "2024-06-02", resp.Date)
}

func TestGetAvailability_Handler_Range(t *testing.T) {
	avail := &mockAvailabilityService{
		availabilityFn: func(ctx context.Context, id string, start, end time.Time) ([]service.DayAvailability, error) {
			return []service.DayAvailability{
				{Date: day(2024, 6, 1), HoursBooked: 8, HoursAvailable: 0, IsFullyBooked: true},
				{Date: day(2024, 6, 2), HoursBooked: 0, HoursAvailable: 8},
			}, nil
		},
	}

	c, rec := newContext(http.MethodGet, "/api/v1/bookings/availability/"+workerID+"?start=2024-06-01&end=2024-06-02", "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	err := NewBookingHandler(nil, avail, nil, 366, nil).GetAvailability(c)

	assert.NoError(t, err)
	var resp dto.AvailabilityResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 2)
	assert.True(t, resp.Days[0].IsFullyBooked)
	assert.Equal(t, "2024-06-02", resp.Days[1].Date)
}

func TestGetAvailability_Handler_RangeTooLong(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/bookings/availability/"+workerID+"?start=2024-01-01&end=2025-06-01", "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	he := httpErr(t, NewBookingHandler(nil, nil, nil, 366, nil).GetAvailability(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetAvailability_Handler_MissingQuery(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/v1/bookings/availability/"+workerID, "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	he := httpErr(t, NewBookingHandler(nil, nil, nil, 366, nil).GetAvailability(c))

	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestGetAvailability_Handler_UnknownWorker(t *testing.T) {
	avail := &mockAvailabilityService{
		hoursFn: func(ctx context.Context, id string, date time.Time) (float64, error) {
			return 0, service.ErrWorkerNotFound
		},
	}

	c, _ := newContext(http.MethodGet, "/api/v1/bookings/availability/"+workerID+"?date=2024-06-02", "")
	c.SetParamNames("workerId")
	c.SetParamValues(workerID)

	he := httpErr(t, NewBookingHandler(nil, avail, nil, 366, nil).GetAvailability(c))

	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestUpdateStatus_Handler_Success(t *testing.T) {
	svc := &mockBookingService{
		updateStatusFn: func(ctx context.Context, id string, status string) (*models.Booking, error) {
			b := sampleBooking()
			b.Status = models.BookingStatus(status)
			return b, nil
		},
	}
	notifier := &mockNotifier{}

	c, rec := newContext(http.MethodPut, "/api/v1/bookings/"+bookingID+"/status", `{"status":"confirmed"}`)
	c.SetParamNames("id")
	c.SetParamValues(bookingID)

	err := NewBookingHandler(svc, nil, notifier, 366, nil).UpdateStatus(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"booking.status_changed"}, notifier.keys)

	var resp dto.BookingResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusConfirmed, resp.Status)
}

func TestUpdateStatus_Handler_Errors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", service.ErrBookingNotFound, http.StatusNotFound},
		{"transition", service.ErrInvalidTransition, http.StatusBadRequest},
		{"bad status", &service.ValidationError{Field: "status", Message: "unknown"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockBookingService{
				updateStatusFn: func(ctx context.Context, id string, status string) (*models.Booking, error) {
					return nil, tc.err
				},
			}
			c, _ := newContext(http.MethodPut, "/api/v1/bookings/"+bookingID+"/status", `{"status":"pending"}`)
			c.SetParamNames("id")
			c.SetParamValues(bookingID)

			he := httpErr(t, NewBookingHandler(svc, nil, nil, 366, nil).UpdateStatus(c))
			assert.Equal(t, tc.code, he.Code)
		})
	}
}
