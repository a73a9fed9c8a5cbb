package api

import (
	"errors"
	"net/http"

	"github.com/defistate/ocean-client-go/fixedrate"
	"github.com/labstack/echo/v4"
)

// JSONErrorHandler renders every error as an ErrorResponse.
func JSONErrorHandler(logger Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, ErrorResponse{
				Error: http.StatusText(he.Code),
				Code:  he.Code,
			})
			return
		}

		logger.Error("Unhandled request error", "path", c.Path(), "err", err)
		_ = c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  http.StatusInternalServerError,
		})
	}
}

// statusFor maps a domain error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, fixedrate.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, fixedrate.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
