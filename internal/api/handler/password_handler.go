package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/api/middleware"
	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
	"github.com/bangka/console-gateway/internal/metrics"
)

// PasswordHandler serves the forced password change screen.
type PasswordHandler struct {
	flow         ports.PasswordChangeFlow
	secureCookie bool
}

func NewPasswordHandler(flow ports.PasswordChangeFlow, secureCookie bool) *PasswordHandler {
	return &PasswordHandler{flow: flow, secureCookie: secureCookie}
}

// Change rotates the signed-in user's password.
//
// @Summary      Change password
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/auth/change-password [post]
func (h *PasswordHandler) Change(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	err := h.flow.Submit(c.Request().Context(), middleware.SessionID(c), domain.PasswordChangeRequest{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			metrics.PasswordChangesTotal.WithLabelValues("invalid").Inc()
		} else {
			metrics.PasswordChangesTotal.WithLabelValues("rejected").Inc()
		}
		return writeError(c, err, domain.MsgPasswordChangeFailed)
	}

	metrics.PasswordChangesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully. Please sign in again."})
}

// Acknowledge ends the session once the user has seen the success message.
//
// @Summary      Acknowledge password change
// @Tags         password
// @Produce      json
// @Success      200   {object}  redirectResponse
// @Router       /api/auth/change-password/acknowledge [post]
func (h *PasswordHandler) Acknowledge(c echo.Context) error {
	next := h.flow.Acknowledge(c.Request().Context(), middleware.SessionID(c))
	middleware.ExpireSessionCookies(c, h.secureCookie)
	metrics.LogoutsTotal.WithLabelValues("password_change").Inc()
	return c.JSON(http.StatusOK, redirectResponse{RedirectTo: next})
}
