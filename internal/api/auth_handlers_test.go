package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_ReturnsTokensAndUser(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"username": "Runner",
		"email":    "runner@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.NotEmpty(t, env.Data.AccessToken)
	assert.NotEmpty(t, env.Data.RefreshToken)
	assert.Equal(t, "Bearer", env.Data.TokenType)
	assert.Equal(t, "Runner", env.Data.User.Username)
	assert.True(t, strings.HasPrefix(env.Data.User.AvatarColor, "#"))
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestSignUp_Validation(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "taken")

	tests := []struct {
		name    string
		body    map[string]any
		status  int
		code    string
		message string
	}{
		{
			name: "password mismatch",
			body: map[string]any{
				"username": "alice", "email": "alice@example.com",
				"password": "correct-horse", "password_confirm": "battery-staple",
			},
			status:  http.StatusBadRequest,
			code:    "VALIDATION",
			message: "Passwords do not match.",
		},
		{
			name: "username taken",
			body: map[string]any{
				"username": "TAKEN", "email": "other@example.com", "password": "correct-horse",
			},
			status:  http.StatusConflict,
			code:    "ALREADY_EXISTS",
			message: "Username is already taken.",
		},
		{
			name:   "missing password",
			body:   map[string]any{"username": "bob", "email": "bob@example.com"},
			status: http.StatusBadRequest,
			code:   "VALIDATION",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/auth/signup", tt.body)
			errBody := requireError(t, resp, tt.status, tt.code)
			if tt.message != "" {
				assert.Equal(t, tt.message, errBody.Message)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "walker")

	t.Run("valid credentials", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "walker@example.com",
			"password": "correct-horse",
		})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		env := decode[AuthResponse](t, resp.Body.Bytes())
		assert.Equal(t, "walker", env.Data.User.Username)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "walker@example.com",
			"password": "wrong-horse",
		})
		requireError(t, resp, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})
}

func TestCurrentUser(t *testing.T) {
	ts := setupTestServer(t)
	token, userID := ts.signUp(t, "climber")

	resp := ts.api.Get("/api/v1/auth/me", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[UserResponse](t, resp.Body.Bytes())
	assert.Equal(t, userID, env.Data.ID)

	resp = ts.api.Get("/api/v1/auth/me")
	requireError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")

	resp = ts.api.Get("/api/v1/auth/me", bearer("not-a-token"))
	requireError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestRefreshAndLogout(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/signup", map[string]any{
		"username": "swimmer", "email": "swimmer@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	signup := decode[AuthResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": signup.RefreshToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	refreshed := decode[AuthResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, signup.SessionID, refreshed.SessionID)
	assert.NotEqual(t, signup.RefreshToken, refreshed.RefreshToken)

	resp = ts.api.Post("/api/v1/auth/logout", bearer(refreshed.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	// The session is gone, so the old access token no longer authenticates.
	resp = ts.api.Get("/api/v1/auth/me", bearer(refreshed.AccessToken))
	requireError(t, resp, http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestPasswordReset_RequestAlwaysSucceeds(t *testing.T) {
	ts := setupTestServer(t)
	ts.signUp(t, "rower")

	for _, email := range []string{"rower@example.com", "nobody@example.com"} {
		resp := ts.api.Post("/api/v1/auth/password-reset", map[string]any{"email": email})
		assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/auth/password-reset", map[string]any{"email": " "})
	errBody := requireError(t, resp, http.StatusBadRequest, "VALIDATION")
	assert.Equal(t, "Please enter your email to reset password.", errBody.Message)
}

func TestPasswordReset_InvalidToken(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/auth/password-reset/confirm", map[string]any{
		"token":            "bogus",
		"password":         "new-password",
		"password_confirm": "new-password",
	})
	assert.GreaterOrEqual(t, resp.Code, 400)
	env := decode[map[string]any](t, resp.Body.Bytes())
	assert.False(t, env.Success)
}

func TestAuthRoutes_RateLimited(t *testing.T) {
	ts := setupTestServer(t, withRateLimit())

	var last int
	for range authRateBurst + 1 {
		resp := ts.api.Post("/api/v1/auth/login", "X-Forwarded-For: 203.0.113.9", map[string]any{
			"email": "ghost@example.com", "password": "whatever",
		})
		last = resp.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// Another client still gets through.
	resp := ts.api.Post("/api/v1/auth/login", "X-Forwarded-For: 198.51.100.7", map[string]any{
		"email": "ghost@example.com", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthStream(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.signUp(t, "cyclist")

	t.Run("requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/stream", nil))
		requireError(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})

	t.Run("sends current user first", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		req := httptest.NewRequestWithContext(ctx, http.MethodGet, "/api/v1/auth/stream?access_token="+token, nil)
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, req)

		assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
		body := rec.Body.String()
		assert.Contains(t, body, "event: auth")
		assert.Contains(t, body, `"type":"signed_in"`)
		assert.Contains(t, body, `"username":"cyclist"`)
	})
}
