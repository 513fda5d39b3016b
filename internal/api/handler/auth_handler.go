package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bangka/console-gateway/internal/api/middleware"
	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
	"github.com/bangka/console-gateway/internal/metrics"
)

// AuthHandler serves the login form, the error dismissal and logout.
type AuthHandler struct {
	login        ports.LoginFlow
	logout       ports.LogoutFlow
	store        ports.SessionStore
	secureCookie bool
	log          zerolog.Logger
}

func NewAuthHandler(login ports.LoginFlow, logout ports.LogoutFlow, store ports.SessionStore, secureCookie bool, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:        login,
		logout:       logout,
		store:        store,
		secureCookie: secureCookie,
		log:          log,
	}
}

// Login authenticates the console session against the registry backend.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	}

	out, err := h.login.Submit(c.Request().Context(), middleware.SessionID(c), domain.Credentials{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			return writeError(c, err, domain.MsgLoginFailed)
		case errors.Is(err, domain.ErrOperationInProgress):
			metrics.LoginAttemptsTotal.WithLabelValues("busy", "").Inc()
			return writeError(c, err, domain.MsgLoginFailed)
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginAttemptsTotal.WithLabelValues("rejected", "").Inc()
			return writeErrorStatus(c, http.StatusUnauthorized, err, domain.MsgLoginFailed)
		default:
			metrics.LoginAttemptsTotal.WithLabelValues("unavailable", "").Inc()
			return writeError(c, err, domain.MsgLoginFailed)
		}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success", string(out.User.Role)).Inc()
	return c.JSON(http.StatusOK, loginResponse{User: out.User, RedirectTo: out.RedirectTo})
}

// ClearError dismisses the error shown on the login form.
//
// @Summary      Clear the session error
// @Tags         auth
// @Success      204
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/clear-error [post]
func (h *AuthHandler) ClearError(c echo.Context) error {
	if err := h.store.ClearError(c.Request().Context(), middleware.SessionID(c)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Logout ends the console session. It always succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200   {object}  redirectResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sid := middleware.SessionID(c)
	next := h.logout.Logout(c.Request().Context(), sid)
	middleware.ExpireSessionCookies(c, h.secureCookie)
	h.log.Info().Str("session", sid).Msg("console session ended")
	metrics.LogoutsTotal.WithLabelValues("user").Inc()
	return c.JSON(http.StatusOK, redirectResponse{RedirectTo: next})
}
