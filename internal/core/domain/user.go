package domain

import "strings"

// Role is the authorization level of a console user.
type Role string

const (
	RoleAdmin                   Role = "admin"
	RoleProvincialAgriculturist Role = "provincial_agriculturist"
	RoleMunicipalAgriculturist  Role = "municipal_agriculturist"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProvincialAgriculturist, RoleMunicipalAgriculturist:
		return true
	}
	return false
}

// AuthenticatedUser is the user record returned by the registry backend on login.
// FirstName and Municipality are nil when the backend omits them.
type AuthenticatedUser struct {
	Username           string  `json:"username"`
	FirstName          *string `json:"first_name,omitempty"`
	Role               Role    `json:"user_role"`
	Municipality       *string `json:"municipality,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
}

// Clone returns a deep copy so callers never share the stored record.
func (u *AuthenticatedUser) Clone() *AuthenticatedUser {
	if u == nil {
		return nil
	}
	c := *u
	if u.FirstName != nil {
		v := *u.FirstName
		c.FirstName = &v
	}
	if u.Municipality != nil {
		v := *u.Municipality
		c.Municipality = &v
	}
	return &c
}

// Credentials are the login form values. They are never persisted.
type Credentials struct {
	Identifier string
	Password   string
}

// Normalize trims and lower-cases the identifier. The password is left untouched.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Identifier: strings.ToLower(strings.TrimSpace(c.Identifier)),
		Password:   c.Password,
	}
}
