package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrOperationInProgress = errors.New("another authentication request is in progress")
	ErrSessionNotFound     = errors.New("console session not found")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrUpstreamUnavailable = errors.New("registry backend unavailable")
)

const (
	MsgLoginFailed          = "Login failed. Please try again."
	MsgPasswordChangeFailed = "Failed to change password. Please try again."
	MsgResetRequestFailed   = "Failed to send password reset email. Please try again."
	MsgResetConfirmFailed   = "Failed to reset password. The link may have expired."
)

// ValidationError is a client-side policy failure. It is never sent upstream.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UpstreamError is a rejection from the registry backend. Message holds the
// backend's own text when it sent one.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("registry backend returned %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap lets 400/401 rejections match ErrInvalidCredentials.
func (e *UpstreamError) Unwrap() error {
	if e.StatusCode == 400 || e.StatusCode == 401 {
		return ErrInvalidCredentials
	}
	return nil
}

// UserMessage picks the text shown to the user: the backend's message when
// present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var de *DisplayError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

// DisplayError is a failed flow step paired with the message shown to the user.
type DisplayError struct {
	Message string
	Err     error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *DisplayError) Unwrap() error {
	return e.Err
}
