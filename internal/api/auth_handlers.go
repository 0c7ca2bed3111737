package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/color"
	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	limited := huma.Middlewares{s.rateLimitAuth}

	huma.Register(s.api, huma.Operation{
		OperationID: "signup",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signup",
		Summary:     "Sign up",
		Description: "Creates an account and signs the new user in",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleSignUp)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns access and refresh tokens",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "refresh",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/refresh",
		Summary:     "Refresh tokens",
		Description: "Exchanges a refresh token for new tokens",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleRefresh)

	huma.Register(s.api, huma.Operation{
		OperationID: "logout",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/logout",
		Summary:     "Logout",
		Description: "Revokes the caller's current session",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Current user",
		Description: "Returns the signed-in user",
		Tags:        []string{"Authentication"},
		Security:    bearerSecurity,
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "requestPasswordReset",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/password-reset",
		Summary:     "Request password reset",
		Description: "Emails a reset link when the address belongs to an account",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleRequestPasswordReset)

	huma.Register(s.api, huma.Operation{
		OperationID: "resetPassword",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/password-reset/confirm",
		Summary:     "Set new password",
		Description: "Consumes a reset token and sets a new password. All sessions are signed out.",
		Tags:        []string{"Authentication"},
		Middlewares: limited,
	}, s.handleResetPassword)
}

// === DTOs ===

// SignUpRequest is the request body for creating an account.
type SignUpRequest struct {
	Username        string `json:"username" doc:"Unique display name"`
	Email           string `json:"email" doc:"Email address"`
	Password        string `json:"password" doc:"Password, at least 8 characters"`
	PasswordConfirm string `json:"password_confirm,omitempty" doc:"Must match password when given"`
}

// SignUpInput wraps the sign-up request with headers for Huma.
type SignUpInput struct {
	Body          SignUpRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" doc:"User email"`
	Password string `json:"password" doc:"User password"`
}

// LoginInput wraps the login request with headers for Huma.
type LoginInput struct {
	Body          LoginRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// RefreshRequest is the request body for token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" doc:"Refresh token"`
}

// RefreshInput wraps the refresh request with headers for Huma.
type RefreshInput struct {
	Body          RefreshRequest
	XForwardedFor string `header:"X-Forwarded-For"`
	XRealIP       string `header:"X-Real-IP"`
	UserAgent     string `header:"User-Agent"`
}

// PasswordResetRequest asks for a reset link.
type PasswordResetRequest struct {
	Email string `json:"email" doc:"Account email"`
}

// PasswordResetInput wraps the reset request for Huma.
type PasswordResetInput struct {
	Body PasswordResetRequest
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Token           string `json:"token" doc:"Token from the reset link"`
	Password        string `json:"password" doc:"New password"`
	PasswordConfirm string `json:"password_confirm" doc:"New password again"`
}

// ResetPasswordInput wraps the reset confirmation for Huma.
type ResetPasswordInput struct {
	Body ResetPasswordRequest
}

// UserResponse contains user information in API responses.
type UserResponse struct {
	ID          string    `json:"id" doc:"User ID"`
	Username    string    `json:"username" doc:"Username"`
	Email       string    `json:"email" doc:"User email"`
	AvatarColor string    `json:"avatar_color" doc:"Deterministic avatar colour"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update timestamp"`
	LastLoginAt time.Time `json:"last_login_at,omitzero" doc:"Last login timestamp"`
}

// AuthResponse contains authentication tokens and user info.
type AuthResponse struct {
	AccessToken  string       `json:"access_token" doc:"PASETO access token"`
	RefreshToken string       `json:"refresh_token" doc:"Refresh token"`
	SessionID    string       `json:"session_id" doc:"Session identifier"`
	TokenType    string       `json:"token_type" doc:"Token type (Bearer)"`
	ExpiresIn    int          `json:"expires_in" doc:"Token expiry in seconds"`
	User         UserResponse `json:"user" doc:"Authenticated user"`
}

// AuthOutput wraps the auth response for Huma.
type AuthOutput struct {
	Body AuthResponse
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body UserResponse
}

// MessageResponse contains a simple message.
type MessageResponse struct {
	Message string `json:"message" doc:"Success message"`
}

// MessageOutput wraps the message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleSignUp(ctx context.Context, input *SignUpInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.SignUp(ctx, service.SignUpRequest{
		Username:        input.Body.Username,
		Email:           input.Body.Email,
		Password:        input.Body.Password,
		PasswordConfirm: input.Body.PasswordConfirm,
		Client:          clientInfo(input.XForwardedFor, input.XRealIP, input.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
		Client:   clientInfo(input.XForwardedFor, input.XRealIP, input.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleRefresh(ctx context.Context, input *RefreshInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.RefreshTokens(ctx, service.RefreshRequest{
		RefreshToken: input.Body.RefreshToken,
		Client:       clientInfo(input.XForwardedFor, input.XRealIP, input.UserAgent),
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: mapAuthResponse(resp)}, nil
}

func (s *Server) handleLogout(ctx context.Context, _ *struct{}) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Auth.Logout(ctx, userID, getSessionID(ctx)); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Signed out"}}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *struct{}) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleRequestPasswordReset(ctx context.Context, input *PasswordResetInput) (*MessageOutput, error) {
	if err := s.services.Auth.RequestPasswordReset(ctx, input.Body.Email); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{
		Message: "If an account exists for that email, a reset link is on its way.",
	}}, nil
}

func (s *Server) handleResetPassword(ctx context.Context, input *ResetPasswordInput) (*MessageOutput, error) {
	err := s.services.Auth.ResetPassword(ctx, service.ResetPasswordRequest{
		Token:           input.Body.Token,
		Password:        input.Body.Password,
		PasswordConfirm: input.Body.PasswordConfirm,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Password updated. Please sign in again."}}, nil
}

// === Mapping ===

func clientInfo(xff, realIP, userAgent string) service.ClientInfo {
	return service.ClientInfo{
		IPAddress: extractIP(xff, realIP, ""),
		UserAgent: userAgent,
	}
}

func mapAuthResponse(resp *service.AuthResponse) AuthResponse {
	return AuthResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    resp.SessionID,
		TokenType:    resp.TokenType,
		ExpiresIn:    resp.ExpiresIn,
		User:         mapUserResponse(resp.User),
	}
}

func mapUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		AvatarColor: color.ForUser(u.ID),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
