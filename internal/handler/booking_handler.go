package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/manos-expertas/scheduling-service/internal/dto"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"github.com/manos-expertas/scheduling-service/internal/timerange"
	"go.uber.org/zap"
)

type BookingHandler struct {
	svc          service.BookingService
	availability service.AvailabilityService
	notifier     Notifier
	maxRangeDays int
	log          *zap.Logger
}

func NewBookingHandler(svc service.BookingService, availability service.AvailabilityService, notifier Notifier, maxRangeDays int, log *zap.Logger) *BookingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingHandler{
		svc:          svc,
		availability: availability,
		notifier:     notifier,
		maxRangeDays: maxRangeDays,
		log:          log,
	}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group) {
	bookings := g.Group("/bookings")
	bookings.POST("", h.CreateBooking)
	bookings.GET("/availability/:workerId", h.GetAvailability)
	bookings.GET("/worker/:workerId", h.ListByWorker)
	bookings.GET("/user/:userId", h.ListByUser)
	bookings.GET("/:id", h.GetBooking)
	bookings.PUT("/:id/status", h.UpdateStatus)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	start, err := timerange.ParseDate(req.StartDate)
	if err != nil {
		return fieldError("startDate", err.Error())
	}
	end, err := timerange.ParseDate(req.EndDate)
	if err != nil {
		return fieldError("endDate", err.Error())
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		WorkerID:    req.Worker,
		UserID:      req.User,
		StartDate:   start,
		EndDate:     end,
		HoursPerDay: req.HoursPerDay,
	})
	if err != nil {
		// unknown worker or user is bad input here, not a missing resource
		return toHTTPError(err, http.StatusBadRequest)
	}

	resp := dto.ToBookingResponse(booking)
	publish(h.notifier, h.log, "booking.created", resp)
	return c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := idParam(c, "id", "booking")
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListByWorker(c echo.Context) error {
	workerID, err := idParam(c, "workerId", "worker")
	if err != nil {
		return err
	}

	bookings, err := h.svc.ListByWorker(c.Request().Context(), workerID)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

func (h *BookingHandler) ListByUser(c echo.Context) error {
	userID, err := idParam(c, "userId", "user")
	if err != nil {
		return err
	}

	bookings, err := h.svc.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

// GetAvailability answers ?date= with the hours left that day, and
// ?start=&end= with the per-day report for the range.
func (h *BookingHandler) GetAvailability(c echo.Context) error {
	workerID, err := idParam(c, "workerId", "worker")
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	if raw := c.QueryParam("date"); raw != "" {
		date, err := timerange.ParseDate(raw)
		if err != nil {
			return fieldError("date", err.Error())
		}
		hours, err := h.availability.AvailableHours(ctx, workerID, date)
		if err != nil {
			return toHTTPError(err, http.StatusNotFound)
		}
		return c.JSON(http.StatusOK, dto.DayHoursResponse{
			WorkerID:       workerID,
			Date:           timerange.Format(date),
			AvailableHours: hours,
		})
	}

	rawStart, rawEnd := c.QueryParam("start"), c.QueryParam("end")
	if rawStart == "" || rawEnd == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "either date or both start and end are required")
	}
	start, err := timerange.ParseDate(rawStart)
	if err != nil {
		return fieldError("start", err.Error())
	}
	end, err := timerange.ParseDate(rawEnd)
	if err != nil {
		return fieldError("end", err.Error())
	}

	days, err := timerange.DaysBetweenInclusive(start, end)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}
	if h.maxRangeDays > 0 && days > h.maxRangeDays {
		return fieldError("end", "range must not exceed "+strconv.Itoa(h.maxRangeDays)+" days")
	}

	report, err := h.availability.Availability(ctx, workerID, start, end)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	return c.JSON(http.StatusOK, dto.ToAvailabilityResponse(workerID, report))
}

func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	id, err := idParam(c, "id", "booking")
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	booking, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status)
	if err != nil {
		return toHTTPError(err, http.StatusNotFound)
	}

	resp := dto.ToBookingResponse(booking)
	publish(h.notifier, h.log, "booking.status_changed", resp)
	return c.JSON(http.StatusOK, resp)
}
