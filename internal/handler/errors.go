package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/manos-expertas/scheduling-service/internal/dto"
	"github.com/manos-expertas/scheduling-service/internal/service"
	"go.uber.org/zap"
)

// Notifier hands domain events to the notification dispatcher.
type Notifier interface {
	Publish(routingKey string, payload any) error
}

// publish is fire-and-forget: a broker failure never fails the request.
func publish(n Notifier, log *zap.Logger, routingKey string, payload any) {
	if n == nil {
		return
	}
	if err := n.Publish(routingKey, payload); err != nil {
		log.Warn("notification not published", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

// toHTTPError maps service errors onto status codes. notFound is the code
// used when a referenced entity is missing, which differs by route.
func toHTTPError(err error, notFound int) error {
	var vErr *service.ValidationError
	var capErr *service.CapacityExceededError

	switch {
	case errors.As(err, &vErr):
		return fieldError(vErr.Field, vErr.Message)
	case errors.As(err, &capErr):
		return echo.NewHTTPError(http.StatusBadRequest, capErr.Error())
	case errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrBookingNotCompleted):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrReviewExists):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(notFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError).SetInternal(err)
	}
}

func fieldError(field, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{Field: field, Message: message})
}

// idParam reads a path parameter and rejects anything that is not a UUID.
func idParam(c echo.Context, name, entity string) (string, error) {
	raw := c.Param(name)
	if err := uuid.Validate(raw); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid "+entity+" id")
	}
	return raw, nil
}
