package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const testSID = "01J0000000000000000000000A"

type stubLoginFlow struct {
	submitFn func(ctx context.Context, sid string, creds domain.Credentials) (*ports.LoginOutcome, error)
}

func (s *stubLoginFlow) Submit(ctx context.Context, sid string, creds domain.Credentials) (*ports.LoginOutcome, error) {
	return s.submitFn(ctx, sid, creds)
}

type stubLogoutFlow struct {
	calls []string
}

func (s *stubLogoutFlow) Logout(ctx context.Context, sid string) string {
	s.calls = append(s.calls, sid)
	return domain.RouteEntry
}

type stubPasswordFlow struct {
	submitFn     func(ctx context.Context, sid string, req domain.PasswordChangeRequest) error
	acknowledged int
}

func (s *stubPasswordFlow) Submit(ctx context.Context, sid string, req domain.PasswordChangeRequest) error {
	return s.submitFn(ctx, sid, req)
}

func (s *stubPasswordFlow) Acknowledge(ctx context.Context, sid string) string {
	s.acknowledged++
	return domain.RouteEntry
}

type stubRecoveryFlow struct {
	requestFn func(ctx context.Context, email string) error
	confirmFn func(ctx context.Context, req domain.PasswordResetConfirmation) error
}

func (s *stubRecoveryFlow) RequestReset(ctx context.Context, email string) error {
	return s.requestFn(ctx, email)
}

func (s *stubRecoveryFlow) ConfirmReset(ctx context.Context, req domain.PasswordResetConfirmation) error {
	return s.confirmFn(ctx, req)
}

type stubStore struct {
	state       domain.SessionState
	updates     chan domain.SessionState
	clearCalls  int
	unsubscribe int
}

func (s *stubStore) Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.AuthenticatedUser, error) {
	panic("not used")
}

func (s *stubStore) Logout(ctx context.Context, sid string) {}

func (s *stubStore) ClearError(ctx context.Context, sid string) error {
	s.clearCalls++
	s.state.Error = nil
	return nil
}

func (s *stubStore) Snapshot(ctx context.Context, sid string) (domain.SessionState, error) {
	return s.state, nil
}

func (s *stubStore) Subscribe(ctx context.Context, sid string) (<-chan domain.SessionState, func(), error) {
	return s.updates, func() { s.unsubscribe++ }, nil
}

func (s *stubStore) RotateCredentials(ctx context.Context, sid string, fn func([]domain.UpstreamCookie) error) error {
	panic("not used")
}

// newContext builds an echo context carrying the test session ID.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("sid", testSID)
	return c, rec
}

func strPtr(s string) *string { return &s }
