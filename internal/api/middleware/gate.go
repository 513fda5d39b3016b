package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
	"github.com/bangka/console-gateway/internal/metrics"
)

const userKey = "user"

// GateOptions configures Gate.
type GateOptions struct {
	// SettleTimeout bounds the wait for an in-flight login to finish.
	SettleTimeout time.Duration
	// API makes the gate answer 401 instead of redirecting to the login page.
	// API routes are exempt from the forced password change redirect.
	API bool
}

// Gate admits only signed-in sessions. While the session is loading it waits
// for the state to settle; it never redirects on a loading state.
func Gate(store ports.SessionStore, opts GateOptions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			sid := SessionID(c)

			state, err := store.Snapshot(ctx, sid)
			if err != nil {
				return err
			}
			if state.Loading {
				state, err = settle(ctx, store, sid, opts.SettleTimeout)
				if err != nil {
					return err
				}
			}

			switch {
			case state.Loading:
				metrics.GateDecisionsTotal.WithLabelValues("pending").Inc()
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still signing in")
			case state.User == nil:
				metrics.GateDecisionsTotal.WithLabelValues("login").Inc()
				if opts.API {
					return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
				}
				return c.Redirect(http.StatusFound, domain.RouteLogin)
			case state.User.MustChangePassword && !opts.API && c.Request().URL.Path != domain.RouteChangePasswordRequired:
				metrics.GateDecisionsTotal.WithLabelValues("force_change").Inc()
				return c.Redirect(http.StatusFound, domain.RouteChangePasswordRequired)
			}

			metrics.GateDecisionsTotal.WithLabelValues("allow").Inc()
			c.Set(userKey, state.User)
			return next(c)
		}
	}
}

// CurrentUser returns the read-only user copy placed by Gate, or nil.
func CurrentUser(c echo.Context) *domain.AuthenticatedUser {
	u, _ := c.Get(userKey).(*domain.AuthenticatedUser)
	return u
}

// settle waits until the session stops loading or timeout elapses, and
// returns the last state seen.
func settle(ctx context.Context, store ports.SessionStore, sid string, timeout time.Duration) (domain.SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	states, unsubscribe, err := store.Subscribe(ctx, sid)
	if err != nil {
		return domain.SessionState{}, err
	}
	defer unsubscribe()

	// The login may have finished before the subscription was live.
	state, err := store.Snapshot(ctx, sid)
	if err != nil || !state.Loading {
		return state, err
	}

	for {
		select {
		case <-ctx.Done():
			return domain.SessionState{Loading: true}, nil
		case next, ok := <-states:
			if !ok {
				return domain.SessionState{Loading: true}, nil
			}
			if !next.Loading {
				return next, nil
			}
		}
	}
}
