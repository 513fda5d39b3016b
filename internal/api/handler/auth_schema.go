package handler

import "github.com/bangka/console-gateway/internal/core/domain"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// ── Request bodies ──────────────────────────────────────────────────────────

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required,email" example:"admin@bangka.ph"`
	Password   string `json:"password"   validate:"required"       example:"s3cret-pass"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type resetRequest struct {
	Email string `json:"email" validate:"required,email" example:"mao@bangka.ph"`
}

type resetConfirmRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ── Responses ───────────────────────────────────────────────────────────────

type loginResponse struct {
	User       *domain.AuthenticatedUser `json:"user"`
	RedirectTo string                    `json:"redirect_to" example:"/admin/dashboard"`
}

type redirectResponse struct {
	RedirectTo string `json:"redirect_to" example:"/"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// sessionResponse mirrors domain.SessionState on the wire.
type sessionResponse struct {
	User            *domain.AuthenticatedUser `json:"user"`
	IsAuthenticated bool                      `json:"is_authenticated"`
	Loading         bool                      `json:"loading"`
	Error           *string                   `json:"error"`
}

func toSessionResponse(s domain.SessionState) sessionResponse {
	return sessionResponse{
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated(),
		Loading:         s.Loading,
		Error:           s.Error,
	}
}
