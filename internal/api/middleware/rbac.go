package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/metrics"
)

// RBAC keeps each role inside its own page tree. A signed-in user whose role
// is not allowed is sent to their own landing route. Must run after Gate.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := CurrentUser(c)
			if user == nil {
				return c.Redirect(http.StatusFound, domain.RouteLogin)
			}
			if _, ok := allowed[user.Role]; !ok {
				metrics.GateDecisionsTotal.WithLabelValues("wrong_tree").Inc()
				return c.Redirect(http.StatusFound, domain.LandingRoute(user.Role))
			}
			return next(c)
		}
	}
}
