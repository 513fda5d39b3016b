package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/api/middleware"
	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

const keepAliveInterval = 25 * time.Second

// SessionHandler exposes the read-only session state to the console.
type SessionHandler struct {
	store ports.SessionStore
}

func NewSessionHandler(store ports.SessionStore) *SessionHandler {
	return &SessionHandler{store: store}
}

// Get returns the current session snapshot.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200   {object}  sessionResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	state, err := h.store.Snapshot(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(state))
}

// Events streams session state changes as server-sent events. The current
// snapshot is sent first.
//
// @Summary      Session state stream
// @Tags         session
// @Produce      text/event-stream
// @Success      200   {object}  sessionResponse
// @Router       /api/auth/session/events [get]
func (h *SessionHandler) Events(c echo.Context) error {
	ctx := c.Request().Context()
	sid := middleware.SessionID(c)

	states, unsubscribe, err := h.store.Subscribe(ctx, sid)
	if err != nil {
		return err
	}
	defer unsubscribe()

	state, err := h.store.Snapshot(ctx, sid)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeSessionEvent(w, state); err != nil {
		return nil
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return nil
			}
			w.Flush()
		case next, ok := <-states:
			if !ok {
				return nil
			}
			if err := writeSessionEvent(w, next); err != nil {
				return nil
			}
		}
	}
}

func writeSessionEvent(w *echo.Response, state domain.SessionState) error {
	data, err := json.Marshal(toSessionResponse(state))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: session\ndata: %s\n\n", data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
