package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
)

// stubStore serves snapshots in order, repeating the last one.
type stubStore struct {
	snapshots []domain.SessionState
	calls     int
	updates   chan domain.SessionState
}

func (s *stubStore) Snapshot(ctx context.Context, sid string) (domain.SessionState, error) {
	i := s.calls
	if i >= len(s.snapshots) {
		i = len(s.snapshots) - 1
	}
	s.calls++
	return s.snapshots[i], nil
}

func (s *stubStore) Subscribe(ctx context.Context, sid string) (<-chan domain.SessionState, func(), error) {
	if s.updates == nil {
		s.updates = make(chan domain.SessionState)
	}
	return s.updates, func() {}, nil
}

func (s *stubStore) Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.AuthenticatedUser, error) {
	return nil, errors.New("not used")
}

func (s *stubStore) Logout(ctx context.Context, sid string) {}

func (s *stubStore) ClearError(ctx context.Context, sid string) error { return nil }

func (s *stubStore) RotateCredentials(ctx context.Context, sid string, fn func([]domain.UpstreamCookie) error) error {
	return errors.New("not used")
}

func signedIn(role domain.Role, mustChange bool) domain.SessionState {
	return domain.SessionState{User: &domain.AuthenticatedUser{
		Username:           "user@bangka.ph",
		Role:               role,
		MustChangePassword: mustChange,
	}}
}

func runGate(t *testing.T, store *stubStore, opts GateOptions, path string) (*httptest.ResponseRecorder, *domain.AuthenticatedUser, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(sessionIDKey, "01J0000000000000000000000A")

	var seen *domain.AuthenticatedUser
	handler := Gate(store, opts)(func(c echo.Context) error {
		seen = CurrentUser(c)
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return rec, seen, err
}

func TestGate_AllowsSignedInUser(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{signedIn(domain.RoleAdmin, false)}}

	rec, user, err := runGate(t, store, GateOptions{SettleTimeout: time.Second}, "/admin/dashboard")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.Role != domain.RoleAdmin {
		t.Fatalf("expected admin user in context, got %+v", user)
	}
}

func TestGate_RedirectsAnonymousPageToLogin(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{{}}}

	rec, _, err := runGate(t, store, GateOptions{SettleTimeout: time.Second}, "/admin/dashboard")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != domain.RouteLogin {
		t.Fatalf("expected redirect to login, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestGate_RejectsAnonymousAPI(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{{}}}

	_, _, err := runGate(t, store, GateOptions{SettleTimeout: time.Second, API: true}, "/api/auth/change-password")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestGate_ForcesPasswordChange(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{signedIn(domain.RoleProvincialAgriculturist, true)}}

	rec, _, _ := runGate(t, store, GateOptions{SettleTimeout: time.Second}, "/provincial_agriculturist/dashboard")
	if rec.Header().Get(echo.HeaderLocation) != domain.RouteChangePasswordRequired {
		t.Fatalf("expected forced change redirect, got %q", rec.Header().Get(echo.HeaderLocation))
	}

	store.calls = 0
	rec, user, _ := runGate(t, store, GateOptions{SettleTimeout: time.Second}, domain.RouteChangePasswordRequired)
	if rec.Code != http.StatusOK || user == nil {
		t.Fatalf("forced change page must be reachable, got %d", rec.Code)
	}
}

func TestGate_APIIgnoresForcedChange(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{signedIn(domain.RoleAdmin, true)}}

	rec, _, err := runGate(t, store, GateOptions{SettleTimeout: time.Second, API: true}, "/api/auth/change-password")
	if err != nil || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d %v", rec.Code, err)
	}
}

func TestGate_WaitsForLoadingToSettle(t *testing.T) {
	store := &stubStore{
		snapshots: []domain.SessionState{{Loading: true}},
		updates:   make(chan domain.SessionState, 2),
	}
	store.updates <- domain.SessionState{Loading: true}
	store.updates <- signedIn(domain.RoleMunicipalAgriculturist, false)

	rec, user, err := runGate(t, store, GateOptions{SettleTimeout: time.Second}, "/municipal_agriculturist/dashboard")
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || user == nil {
		t.Fatalf("expected settled user to pass, got %d", rec.Code)
	}
}

func TestGate_LoadingTimeoutIsPending(t *testing.T) {
	store := &stubStore{snapshots: []domain.SessionState{{Loading: true}}}

	rec, _, err := runGate(t, store, GateOptions{SettleTimeout: 20 * time.Millisecond}, "/admin/dashboard")
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header")
	}
	if rec.Header().Get(echo.HeaderLocation) != "" {
		t.Fatalf("loading state must never redirect")
	}
}
