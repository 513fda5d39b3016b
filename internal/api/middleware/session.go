package middleware

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

const (
	// SessionCookie carries the signed console session ID.
	SessionCookie = "bangka_console"

	sessionIDKey = "sid"
)

// auxiliaryCookies are browser cookies left behind by older console builds.
// Logout expires them together with the session cookie.
var auxiliaryCookies = []string{"authToken", "user"}

// SessionOptions configures the console session cookie.
type SessionOptions struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// Session resolves the console session ID from the signed cookie, minting a
// fresh one when the cookie is missing, expired or tampered with.
func Session(opts SessionOptions) echo.MiddlewareFunc {
	key := []byte(opts.Secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(SessionCookie); err == nil {
				sid = parseSessionToken(ck.Value, key)
			}
			if sid == "" {
				sid = ulid.Make().String()
				token, err := signSessionToken(sid, key, opts.TTL)
				if err != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "could not start console session").SetInternal(err)
				}
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					MaxAge:   int(opts.TTL.Seconds()),
					HttpOnly: true,
					Secure:   opts.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(sessionIDKey, sid)
			return next(c)
		}
	}
}

// SessionID returns the console session ID set by Session, or "".
func SessionID(c echo.Context) string {
	sid, _ := c.Get(sessionIDKey).(string)
	return sid
}

// ExpireSessionCookies removes the session cookie and the auxiliary cookies
// from the browser.
func ExpireSessionCookies(c echo.Context, secure bool) {
	for _, name := range append([]string{SessionCookie}, auxiliaryCookies...) {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: name == SessionCookie,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func signSessionToken(sid string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(key)
}

func parseSessionToken(raw string, key []byte) string {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	})
	if err != nil || !tkn.Valid {
		return ""
	}
	sid, _ := claims["sid"].(string)
	if _, err := ulid.ParseStrict(sid); err != nil {
		return ""
	}
	return sid
}
