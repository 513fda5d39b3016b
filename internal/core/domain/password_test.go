package domain

import (
	"errors"
	"testing"
)

func TestPasswordChangeRequest_Validate(t *testing.T) {
	cases := []struct {
		name    string
		req     PasswordChangeRequest
		field   string
		message string
	}{
		{"empty current", PasswordChangeRequest{"", "newpass12", "newpass12"}, "current_password", MsgCurrentPasswordRequired},
		{"empty current wins over short", PasswordChangeRequest{"", "short", "other"}, "current_password", MsgCurrentPasswordRequired},
		{"mismatch", PasswordChangeRequest{"old1234", "newpass1", "newpass2"}, "confirm_password", MsgPasswordMismatch},
		{"mismatch wins over short", PasswordChangeRequest{"old1234", "short", "shorter"}, "confirm_password", MsgPasswordMismatch},
		{"too short", PasswordChangeRequest{"old1234", "short", "short"}, "new_password", MsgPasswordTooShort},
		{"unchanged", PasswordChangeRequest{"samepass1", "samepass1", "samepass1"}, "new_password", MsgPasswordUnchanged},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tc.field || ve.Message != tc.message {
				t.Fatalf("expected %s/%q, got %s/%q", tc.field, tc.message, ve.Field, ve.Message)
			}
		})
	}
}

func TestPasswordChangeRequest_ValidateAccepts(t *testing.T) {
	req := PasswordChangeRequest{CurrentPassword: "old1234", NewPassword: "newpass1", ConfirmPassword: "newpass1"}
	if err := req.Validate(); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
}

func TestPasswordResetConfirmation_Validate(t *testing.T) {
	if err := (PasswordResetConfirmation{NewPassword: "", ConfirmPassword: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty password")
	}
	if err := (PasswordResetConfirmation{NewPassword: "longenough", ConfirmPassword: "different1"}).Validate(); err == nil || err.Error() != MsgPasswordMismatch {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := (PasswordResetConfirmation{NewPassword: "short", ConfirmPassword: "short"}).Validate(); err == nil || err.Error() != MsgPasswordTooShort {
		t.Fatalf("expected too short, got %v", err)
	}
	if err := (PasswordResetConfirmation{NewPassword: "longenough", ConfirmPassword: "longenough"}).Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(&UpstreamError{StatusCode: 400, Message: "Wrong password."}, "fallback"); got != "Wrong password." {
		t.Fatalf("expected upstream message, got %q", got)
	}
	if got := UserMessage(&UpstreamError{StatusCode: 500}, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	if got := UserMessage(errors.New("dial tcp: refused"), "fallback"); got != "fallback" {
		t.Fatalf("expected fallback for transport error, got %q", got)
	}
	if !errors.Is(&UpstreamError{StatusCode: 401}, ErrInvalidCredentials) {
		t.Fatalf("401 should match ErrInvalidCredentials")
	}
	if errors.Is(&UpstreamError{StatusCode: 503}, ErrInvalidCredentials) {
		t.Fatalf("503 should not match ErrInvalidCredentials")
	}
}
