package service

import (
	"context"
	"sync"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory session repository
// ---------------------------------------------------------------------------

type memSessionRepo struct {
	mu       sync.Mutex
	records  map[string]*domain.SessionRecord
	inflight map[string]bool
	getErr   error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{
		records:  make(map[string]*domain.SessionRecord),
		inflight: make(map[string]bool),
	}
}

func cloneRecord(r *domain.SessionRecord) *domain.SessionRecord {
	c := *r
	c.User = r.User.Clone()
	if r.Error != nil {
		msg := *r.Error
		c.Error = &msg
	}
	c.Upstream = append([]domain.UpstreamCookie(nil), r.Upstream...)
	return &c
}

func (r *memSessionRepo) Get(_ context.Context, id string) (*domain.SessionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return cloneRecord(rec), nil
}

func (r *memSessionRepo) Save(_ context.Context, rec *domain.SessionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *memSessionRepo) Acquire(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inflight[id] {
		return false, nil
	}
	r.inflight[id] = true
	return true, nil
}

func (r *memSessionRepo) Release(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, id)
	return nil
}

func (r *memSessionRepo) InFlight(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight[id], nil
}

// ---------------------------------------------------------------------------
// Recording notifier
// ---------------------------------------------------------------------------

type recordingNotifier struct {
	mu        sync.Mutex
	published []domain.SessionState
}

func (n *recordingNotifier) Publish(_ context.Context, _ string, state domain.SessionState) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, state)
	return nil
}

func (n *recordingNotifier) Subscribe(_ context.Context, _ string) (<-chan domain.SessionState, func(), error) {
	ch := make(chan domain.SessionState)
	return ch, func() {}, nil
}

// ---------------------------------------------------------------------------
// Stub backend gateway
// ---------------------------------------------------------------------------

type stubGateway struct {
	loginFn      func(ctx context.Context, creds domain.Credentials) (*ports.UpstreamLogin, error)
	logoutErr    error
	setPassErr   error
	resetErr     error
	confirmErr   error
	loginCalls   int
	logoutCalls  int
	setPassCalls int
	resetCalls   int
	confirmCalls int
	lastCreds    domain.Credentials
	lastCookies  []domain.UpstreamCookie
	lastReset    [2]string
}

func (g *stubGateway) Login(ctx context.Context, creds domain.Credentials) (*ports.UpstreamLogin, error) {
	g.loginCalls++
	g.lastCreds = creds
	return g.loginFn(ctx, creds)
}

func (g *stubGateway) Logout(_ context.Context, cookies []domain.UpstreamCookie) error {
	g.logoutCalls++
	g.lastCookies = cookies
	return g.logoutErr
}

func (g *stubGateway) SetNewPassword(_ context.Context, cookies []domain.UpstreamCookie, _, _ string) error {
	g.setPassCalls++
	g.lastCookies = cookies
	return g.setPassErr
}

func (g *stubGateway) RequestPasswordReset(_ context.Context, email, frontendURL string) error {
	g.resetCalls++
	g.lastReset = [2]string{email, frontendURL}
	return g.resetErr
}

func (g *stubGateway) ConfirmPasswordReset(_ context.Context, _ domain.PasswordResetConfirmation) error {
	g.confirmCalls++
	return g.confirmErr
}

func (g *stubGateway) totalCalls() int {
	return g.loginCalls + g.logoutCalls + g.setPassCalls + g.resetCalls + g.confirmCalls
}

func userLogin(role domain.Role, mustChange bool) func(context.Context, domain.Credentials) (*ports.UpstreamLogin, error) {
	return func(_ context.Context, creds domain.Credentials) (*ports.UpstreamLogin, error) {
		return &ports.UpstreamLogin{
			User: &domain.AuthenticatedUser{
				Username:           creds.Identifier,
				Role:               role,
				MustChangePassword: mustChange,
			},
			Cookies: []domain.UpstreamCookie{{Name: "sessionid", Value: "abc"}, {Name: "csrftoken", Value: "tok"}},
		}, nil
	}
}

// ---------------------------------------------------------------------------
// Recording audit
// ---------------------------------------------------------------------------

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuthEvent
}

func (a *recordingAudit) Record(event domain.AuthEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) last() domain.AuthEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return domain.AuthEvent{}
	}
	return a.events[len(a.events)-1]
}
