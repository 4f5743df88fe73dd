package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/manos-expertas/scheduling-service/internal/dto"
	"go.uber.org/zap"
)

// NewErrorHandler renders every error as {"message": ...}. Server-side
// failures are logged and replaced by a generic message.
func NewErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		resp := dto.ErrorResponse{Message: http.StatusText(code)}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			switch m := he.Message.(type) {
			case string:
				resp.Message = m
			case dto.ErrorResponse:
				resp = m
			}
			if he.Internal != nil {
				err = he.Internal
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
			resp = dto.ErrorResponse{Message: http.StatusText(code)}
		}

		_ = c.JSON(code, resp)
	}
}
