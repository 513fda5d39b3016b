package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
)

const msgBusy = "Another request is already in progress. Please wait."

// statusFor maps a flow error to the HTTP status the console expects.
func statusFor(err error) int {
	var ve *domain.ValidationError
	var ue *domain.UpstreamError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOperationInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &ue):
		if ue.StatusCode >= 400 && ue.StatusCode < 500 {
			return ue.StatusCode
		}
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the message a user should see, falling back to
// fallback when neither the flow nor the backend supplied one.
func writeError(c echo.Context, err error, fallback string) error {
	return writeErrorStatus(c, statusFor(err), err, fallback)
}

func writeErrorStatus(c echo.Context, status int, err error, fallback string) error {
	msg := domain.UserMessage(err, fallback)
	switch {
	case errors.Is(err, domain.ErrOperationInProgress):
		msg = msgBusy
	case errors.Is(err, domain.ErrUnauthenticated):
		msg = "not authenticated"
	}
	return c.JSON(status, errorResponse{Error: msg})
}
