package domain

import "strings"

const (
	RouteEntry                  = "/"
	RouteLogin                  = "/login"
	RouteForgotPassword         = "/forgot-password"
	RouteResetPassword          = "/reset-password"
	RouteChangePasswordRequired = "/change-password-required"
)

var landingRoutes = map[Role]string{
	RoleAdmin:                   "/admin/dashboard",
	RoleProvincialAgriculturist: "/provincial_agriculturist/dashboard",
	RoleMunicipalAgriculturist:  "/municipal_agriculturist/dashboard",
}

var roleTrees = map[Role]string{
	RoleAdmin:                   "/admin",
	RoleProvincialAgriculturist: "/provincial_agriculturist",
	RoleMunicipalAgriculturist:  "/municipal_agriculturist",
}

// LandingRoute returns the dashboard for a role, or the entry route for anything else.
func LandingRoute(r Role) string {
	if route, ok := landingRoutes[r]; ok {
		return route
	}
	return RouteEntry
}

// RoleTree returns the path prefix owned by a role.
func RoleTree(r Role) (string, bool) {
	prefix, ok := roleTrees[r]
	return prefix, ok
}

// NextRoute decides where a freshly authenticated user goes.
// A pending password rotation wins over the role.
func NextRoute(u *AuthenticatedUser) string {
	if u == nil {
		return RouteLogin
	}
	if u.MustChangePassword {
		return RouteChangePasswordRequired
	}
	return LandingRoute(u.Role)
}

// OwnsPath reports whether path sits inside the role's tree.
func OwnsPath(r Role, path string) bool {
	prefix, ok := roleTrees[r]
	if !ok {
		return false
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
