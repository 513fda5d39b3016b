package handler

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/api/middleware"
	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
)

// DefaultShell is served when no console bundle is deployed.
var DefaultShell = []byte(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>BANGKA</title></head>
<body><div id="root"></div></body>
</html>
`)

// LoadShell reads index.html from the console bundle.
func LoadShell(fsys fs.FS) ([]byte, error) {
	index, err := fs.ReadFile(fsys, "index.html")
	if err != nil {
		return nil, fmt.Errorf("load console shell: %w", err)
	}
	return index, nil
}

// PageHandler serves the console's single-page shell.
type PageHandler struct {
	index []byte
	store ports.SessionStore
}

func NewPageHandler(index []byte, store ports.SessionStore) *PageHandler {
	return &PageHandler{index: index, store: store}
}

// Shell returns the console shell. Route gating happens in middleware.
func (h *PageHandler) Shell(c echo.Context) error {
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.HTMLBlob(http.StatusOK, h.index)
}

// Public serves the entry and login pages. A session that is already signed
// in is sent on to where it belongs instead.
func (h *PageHandler) Public(c echo.Context) error {
	state, err := h.store.Snapshot(c.Request().Context(), middleware.SessionID(c))
	if err != nil {
		return err
	}
	if !state.Loading && state.User != nil {
		return c.Redirect(http.StatusFound, domain.NextRoute(state.User))
	}
	return h.Shell(c)
}
