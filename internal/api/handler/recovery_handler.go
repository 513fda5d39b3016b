package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

// RecoveryHandler serves the forgot-password and reset-link forms.
type RecoveryHandler struct {
	flow ports.RecoveryFlow
}

func NewRecoveryHandler(flow ports.RecoveryFlow) *RecoveryHandler {
	return &RecoveryHandler{flow: flow}
}

// Request asks the backend to email a password reset link.
//
// @Summary      Request a password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        body  body      resetRequest  true  "Account email"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/auth/password-reset [post]
func (h *RecoveryHandler) Request(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	}

	if err := h.flow.RequestReset(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err, domain.MsgResetRequestFailed)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "If the account exists, a reset link has been sent."})
}

// Confirm sets a new password from an emailed reset link.
//
// @Summary      Confirm a password reset
// @Tags         password
// @Accept       json
// @Produce      json
// @Param        uid    path      string               true  "Encoded user ID"
// @Param        token  path      string               true  "Reset token"
// @Param        body   body      resetConfirmRequest  true  "New password"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  errorResponse
// @Failure      422    {object}  errorResponse
// @Failure      502    {object}  errorResponse
// @Router       /api/auth/password-reset-confirm/{uid}/{token} [post]
func (h *RecoveryHandler) Confirm(c echo.Context) error {
	var req resetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	err := h.flow.ConfirmReset(c.Request().Context(), domain.PasswordResetConfirmation{
		UID:             c.Param("uid"),
		Token:           c.Param("token"),
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return writeError(c, err, domain.MsgResetConfirmFailed)
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password has been reset. You can now sign in."})
}
