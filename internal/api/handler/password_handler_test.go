package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/bangka/console-gateway/internal/core/domain"
)

func TestPasswordHandler_Change_Success(t *testing.T) {
	flow := &stubPasswordFlow{
		submitFn: func(ctx context.Context, sid string, req domain.PasswordChangeRequest) error {
			if req.CurrentPassword != "OldPass1" || req.NewPassword != "NewPass12" || req.ConfirmPassword != "NewPass12" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return nil
		},
	}
	h := NewPasswordHandler(flow, false)

	c, rec := newContext(http.MethodPost, "/api/auth/change-password",
		`{"current_password":"OldPass1","new_password":"NewPass12","confirm_password":"NewPass12"}`)
	if err := h.Change(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestPasswordHandler_Change_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "policy violation",
			err:     &domain.ValidationError{Field: "new_password", Message: domain.MsgPasswordTooShort},
			status:  http.StatusUnprocessableEntity,
			message: domain.MsgPasswordTooShort,
		},
		{
			name:    "backend message shown verbatim",
			err:     &domain.DisplayError{Message: "Current password is incorrect", Err: &domain.UpstreamError{StatusCode: 400, Message: "Current password is incorrect"}},
			status:  http.StatusBadRequest,
			message: "Current password is incorrect",
		},
		{
			name:    "generic failure",
			err:     &domain.DisplayError{Message: domain.MsgPasswordChangeFailed, Err: domain.ErrUpstreamUnavailable},
			status:  http.StatusBadGateway,
			message: domain.MsgPasswordChangeFailed,
		},
		{
			name:    "not signed in",
			err:     domain.ErrUnauthenticated,
			status:  http.StatusUnauthorized,
			message: "not authenticated",
		},
		{
			name:    "busy",
			err:     domain.ErrOperationInProgress,
			status:  http.StatusConflict,
			message: msgBusy,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flow := &stubPasswordFlow{
				submitFn: func(ctx context.Context, sid string, req domain.PasswordChangeRequest) error {
					return tc.err
				},
			}
			h := NewPasswordHandler(flow, false)

			c, rec := newContext(http.MethodPost, "/api/auth/change-password", `{"current_password":"x"}`)
			_ = h.Change(c)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			var resp errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &resp)
			if resp.Error != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, resp.Error)
			}
		})
	}
}

func TestPasswordHandler_Acknowledge(t *testing.T) {
	flow := &stubPasswordFlow{}
	h := NewPasswordHandler(flow, false)

	c, rec := newContext(http.MethodPost, "/api/auth/change-password/acknowledge", "")
	if err := h.Acknowledge(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if flow.acknowledged != 1 {
		t.Fatalf("expected one acknowledgment, got %d", flow.acknowledged)
	}
	var resp redirectResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.RedirectTo != domain.RouteEntry {
		t.Fatalf("expected redirect to entry, got %q", resp.RedirectTo)
	}
}
