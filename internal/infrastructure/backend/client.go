// Package backend is the HTTP client for the BANGKA registry backend's
// authentication endpoints. The backend keeps a cookie session; the client
// returns the cookies it issues and replays them on later calls.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/bangka/console-gateway/internal/core/domain"
	"github.com/bangka/console-gateway/internal/core/ports"
	"github.com/bangka/console-gateway/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second

	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Client implements ports.AuthGateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// logoutBackoff governs retries of the idempotent logout call.
	logoutBackoff func() retry.Backoff
}

// NewClient builds a client for baseURL. A default timeout is applied when
// none is provided.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logoutBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(100*time.Millisecond))
		},
	}
}

var _ ports.AuthGateway = (*Client)(nil)

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginUser mirrors the backend's user payload. It may arrive at the top
// level or nested under "user".
type loginUser struct {
	Username           string          `json:"username"`
	Email              string          `json:"email"`
	FirstName          *string         `json:"first_name"`
	UserRole           string          `json:"user_role"`
	Municipality       json.RawMessage `json:"municipality"`
	MustChangePassword bool            `json:"must_change_password"`
}

type loginResponse struct {
	loginUser
	User *loginUser `json:"user"`
}

// Login posts the credentials and returns the user and the backend's cookies.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*ports.UpstreamLogin, error) {
	resp, err := c.post(ctx, "login", "login/", loginRequest{Username: creds.Identifier, Password: creds.Password}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read login response: %v", domain.ErrUpstreamUnavailable, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, parseError(resp.StatusCode, body)
	}

	var lr loginResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("%w: decode login response: %v", domain.ErrUpstreamUnavailable, err)
	}
	u := lr.loginUser
	if lr.User != nil {
		u = *lr.User
	}

	user := &domain.AuthenticatedUser{
		Username:           firstNonEmpty(u.Email, u.Username, creds.Identifier),
		FirstName:          u.FirstName,
		Role:               domain.Role(u.UserRole),
		Municipality:       municipalityName(u.Municipality),
		MustChangePassword: u.MustChangePassword,
	}

	return &ports.UpstreamLogin{User: user, Cookies: fromHTTPCookies(resp.Cookies())}, nil
}

// Logout invalidates the backend session. Transport failures are retried.
func (c *Client) Logout(ctx context.Context, cookies []domain.UpstreamCookie) error {
	return retry.Do(ctx, c.logoutBackoff(), func(ctx context.Context) error {
		err := c.expectOK(ctx, "logout", "logout/", nil, cookies)
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}

type setNewPasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (c *Client) SetNewPassword(ctx context.Context, cookies []domain.UpstreamCookie, currentPassword, newPassword string) error {
	return c.expectOK(ctx, "set_new_password", "set-new-password/", setNewPasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, cookies)
}

type passwordResetRequest struct {
	Email       string `json:"email"`
	FrontendURL string `json:"frontend_url"`
}

func (c *Client) RequestPasswordReset(ctx context.Context, email, frontendURL string) error {
	return c.expectOK(ctx, "password_reset", "password-reset/", passwordResetRequest{
		Email:       email,
		FrontendURL: frontendURL,
	}, nil)
}

type passwordResetConfirmRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, req domain.PasswordResetConfirmation) error {
	path := fmt.Sprintf("password-reset-confirm/%s/%s/", url.PathEscape(req.UID), url.PathEscape(req.Token))
	return c.expectOK(ctx, "password_reset_confirm", path, passwordResetConfirmRequest{
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	}, nil)
}

// Ping reports whether the backend answers at all. Any HTTP status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	resp.Body.Close()
	return nil
}

// expectOK posts and discards a 2xx body, turning anything else into an error.
func (c *Client) expectOK(ctx context.Context, endpoint, path string, payload any, cookies []domain.UpstreamCookie) error {
	resp, err := c.post(ctx, endpoint, path, payload, cookies)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return parseError(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint, path string, payload any, cookies []domain.UpstreamCookie) (*http.Response, error) {
	var body io.Reader = http.NoBody
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", endpoint, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		if ck.Name == csrfCookie {
			req.Header.Set(csrfHeader, ck.Value)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.UpstreamRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUpstreamUnavailable, endpoint, err)
	}
	metrics.UpstreamRequestDuration.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())
	return resp, nil
}

// parseError extracts the backend's message from the usual error shapes:
// {"error": ...}, {"detail": ...}, {"message": ...}, {"non_field_errors": [...]}
// and field errors like {"new_password": ["..."]}.
func parseError(status int, body []byte) error {
	ue := &domain.UpstreamError{StatusCode: status}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ue
	}
	for _, key := range []string{"error", "detail", "message", "non_field_errors"} {
		if msg := messageFrom(payload[key]); msg != "" {
			ue.Message = msg
			return ue
		}
	}
	for _, v := range payload {
		if list, ok := v.([]any); ok {
			if msg := messageFrom(list); msg != "" {
				ue.Message = msg
				return ue
			}
		}
	}
	return ue
}

func messageFrom(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// municipalityName accepts either a plain string or an object with a name.
func municipalityName(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return &name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return &obj.Name
	}
	return nil
}

func fromHTTPCookies(in []*http.Cookie) []domain.UpstreamCookie {
	out := make([]domain.UpstreamCookie, 0, len(in))
	for _, ck := range in {
		out = append(out, domain.UpstreamCookie{Name: ck.Name, Value: ck.Value, Expires: ck.Expires})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
