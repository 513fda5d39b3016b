package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const (
	flagPollInterval  = 50 * time.Millisecond
	defaultLogoutWait = 30 * time.Second
)

// sessionStore implements ports.SessionStore on top of a SessionRepository.
// The repository's in-flight flag is the loading signal: it is held for the
// whole duration of exactly one backend call per session.
type sessionStore struct {
	repo     ports.SessionRepository
	notifier ports.SessionNotifier
	gateway  ports.AuthGateway
	audit    ports.AuditRecorder
	log      zerolog.Logger
	now      func() time.Time

	// logoutWait bounds how long Logout waits for an in-flight operation.
	logoutWait time.Duration
}

// NewSessionStore returns a SessionStore implementation.
func NewSessionStore(
	repo ports.SessionRepository,
	notifier ports.SessionNotifier,
	gateway ports.AuthGateway,
	audit ports.AuditRecorder,
	logoutWait time.Duration,
	log zerolog.Logger,
) ports.SessionStore {
	if logoutWait <= 0 {
		logoutWait = defaultLogoutWait
	}
	return &sessionStore{
		repo:       repo,
		notifier:   notifier,
		gateway:    gateway,
		audit:      audit,
		log:        log,
		now:        timeNow,
		logoutWait: logoutWait,
	}
}

// Login authenticates against the backend and stores the returned user.
// On failure the session keeps a display message in Error and nil is returned
// together with the cause.
func (s *sessionStore) Login(ctx context.Context, sid string, creds domain.Credentials) (*domain.AuthenticatedUser, error) {
	rec, err := s.begin(ctx, sid)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer s.finish(ctx, rec)

	creds = creds.Normalize()
	res, err := s.gateway.Login(ctx, creds)
	if err == nil && (res == nil || res.User == nil) {
		err = fmt.Errorf("%w: login response carried no user", domain.ErrUpstreamUnavailable)
	}
	if err != nil {
		msg := domain.UserMessage(err, domain.MsgLoginFailed)
		rec.User = nil
		rec.Upstream = nil
		rec.Error = &msg
		s.persist(ctx, rec)
		s.record(domain.AuthEvent{
			SessionID: sid,
			Kind:      domain.EventLogin,
			Username:  creds.Identifier,
			Outcome:   domain.OutcomeFailure,
			Detail:    err.Error(),
		})
		s.log.Info().Err(err).Str("session", sid).Msg("login rejected")
		return nil, fmt.Errorf("login: %w", err)
	}

	rec.User = res.User.Clone()
	rec.Upstream = res.Cookies
	rec.Error = nil
	s.persist(ctx, rec)
	s.record(domain.AuthEvent{
		SessionID: sid,
		Kind:      domain.EventLogin,
		Username:  rec.User.Username,
		Role:      rec.User.Role,
		Outcome:   domain.OutcomeSuccess,
	})
	s.log.Info().
		Str("session", sid).
		Str("role", string(rec.User.Role)).
		Bool("must_change_password", rec.User.MustChangePassword).
		Msg("login succeeded")

	return rec.User.Clone(), nil
}

// Logout invalidates the backend session and resets the console session.
// An in-flight login or password change is allowed to finish first, so its
// result cannot outlive the logout. Backend failures are logged; the local
// reset always happens.
func (s *sessionStore) Logout(ctx context.Context, sid string) {
	ctx = context.WithoutCancel(ctx)

	if held := s.awaitFlag(ctx, sid); held {
		defer s.release(ctx, sid)
	}

	rec, err := s.repo.Get(ctx, sid)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.log.Warn().Err(err).Str("session", sid).Msg("logout: load session failed")
	}

	event := domain.AuthEvent{SessionID: sid, Kind: domain.EventLogout, Outcome: domain.OutcomeSuccess}
	if rec != nil && rec.User != nil {
		event.Username = rec.User.Username
		event.Role = rec.User.Role
	}
	if rec != nil && len(rec.Upstream) > 0 {
		if err := s.gateway.Logout(ctx, rec.Upstream); err != nil {
			s.log.Warn().Err(err).Str("session", sid).Msg("logout: backend invalidation failed")
			event.Outcome = domain.OutcomeFailure
			event.Detail = err.Error()
		}
	}

	if err := s.repo.Delete(ctx, sid); err != nil {
		s.log.Error().Err(err).Str("session", sid).Msg("logout: delete session failed")
	}
	s.record(event)
	s.publish(ctx, sid, domain.SessionState{})
}

// ClearError drops any stale error message. Unknown sessions are a no-op.
func (s *sessionStore) ClearError(ctx context.Context, sid string) error {
	rec, err := s.repo.Get(ctx, sid)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("clear error: %w", err)
	}
	if rec.Error == nil {
		return nil
	}
	rec.Error = nil
	rec.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("clear error: %w", err)
	}

	loading, _ := s.repo.InFlight(ctx, sid)
	s.publish(ctx, sid, rec.State(loading))
	return nil
}

// Snapshot returns a read-only view; an unknown session is the initial state.
func (s *sessionStore) Snapshot(ctx context.Context, sid string) (domain.SessionState, error) {
	loading, err := s.repo.InFlight(ctx, sid)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("snapshot: %w", err)
	}
	rec, err := s.repo.Get(ctx, sid)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.SessionState{Loading: loading}, nil
	}
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("snapshot: %w", err)
	}
	return rec.State(loading), nil
}

func (s *sessionStore) Subscribe(ctx context.Context, sid string) (<-chan domain.SessionState, func(), error) {
	return s.notifier.Subscribe(ctx, sid)
}

// RotateCredentials holds the in-flight flag while fn talks to the backend
// with the session's cookies. When fn succeeds the backend has invalidated
// them, so the user and cookies are dropped and the session must sign in
// again. It fails with ErrUnauthenticated when nobody is signed in.
func (s *sessionStore) RotateCredentials(ctx context.Context, sid string, fn func(cookies []domain.UpstreamCookie) error) error {
	held, err := s.repo.Acquire(ctx, sid)
	if err != nil {
		return err
	}
	if !held {
		return domain.ErrOperationInProgress
	}
	defer s.release(ctx, sid)

	rec, err := s.repo.Get(ctx, sid)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ErrUnauthenticated
	}
	if err != nil {
		return err
	}
	if rec.User == nil {
		return domain.ErrUnauthenticated
	}

	s.publish(ctx, sid, rec.State(true))
	if err := fn(rec.Upstream); err != nil {
		s.publish(ctx, sid, rec.State(false))
		return err
	}

	rec.User = nil
	rec.Upstream = nil
	rec.Error = nil
	s.persist(ctx, rec)
	s.publish(ctx, sid, rec.State(false))
	return nil
}

// awaitFlag takes the in-flight flag, waiting up to logoutWait for a running
// operation to release it. It reports whether the flag is held.
func (s *sessionStore) awaitFlag(ctx context.Context, sid string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.logoutWait)
	defer cancel()

	held := false
	err := retry.Do(ctx, retry.NewConstant(flagPollInterval), func(ctx context.Context) error {
		ok, err := s.repo.Acquire(ctx, sid)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(domain.ErrOperationInProgress)
		}
		held = true
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("session", sid).Msg("logout: in-flight flag not acquired, continuing")
	}
	return held
}

// begin takes the in-flight flag and clears the previous error before a login.
func (s *sessionStore) begin(ctx context.Context, sid string) (*domain.SessionRecord, error) {
	held, err := s.repo.Acquire(ctx, sid)
	if err != nil {
		return nil, err
	}
	if !held {
		return nil, domain.ErrOperationInProgress
	}

	rec, err := s.repo.Get(ctx, sid)
	if errors.Is(err, domain.ErrSessionNotFound) {
		rec, err = domain.NewSessionRecord(sid, s.now()), nil
	}
	if err != nil {
		s.release(ctx, sid)
		return nil, err
	}

	rec.Error = nil
	if err := s.save(ctx, rec); err != nil {
		s.release(ctx, sid)
		return nil, err
	}
	s.publish(ctx, sid, rec.State(true))
	return rec, nil
}

// finish releases the in-flight flag and announces the settled state.
func (s *sessionStore) finish(ctx context.Context, rec *domain.SessionRecord) {
	s.release(ctx, rec.ID)
	s.publish(ctx, rec.ID, rec.State(false))
}

func (s *sessionStore) release(ctx context.Context, sid string) {
	if err := s.repo.Release(context.WithoutCancel(ctx), sid); err != nil {
		s.log.Error().Err(err).Str("session", sid).Msg("release in-flight flag failed")
	}
}

func (s *sessionStore) save(ctx context.Context, rec *domain.SessionRecord) error {
	rec.UpdatedAt = s.now()
	return s.repo.Save(ctx, rec)
}

// persist saves even when the caller's context is already cancelled.
func (s *sessionStore) persist(ctx context.Context, rec *domain.SessionRecord) {
	if err := s.save(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error().Err(err).Str("session", rec.ID).Msg("save session failed")
	}
}

func (s *sessionStore) publish(ctx context.Context, sid string, state domain.SessionState) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(context.WithoutCancel(ctx), sid, state); err != nil {
		s.log.Warn().Err(err).Str("session", sid).Msg("publish session state failed")
	}
}

func (s *sessionStore) record(event domain.AuthEvent) {
	if s.audit == nil {
		return
	}
	event.OccurredAt = s.now()
	s.audit.Record(event)
}
