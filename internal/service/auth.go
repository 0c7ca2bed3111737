package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/fitchallenge/fitchallenge-server/internal/auth"
	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/id"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
	"github.com/fitchallenge/fitchallenge-server/internal/store/kv"
	"github.com/fitchallenge/fitchallenge-server/internal/util"
)

// hashPassword is swapped for cheaper parameters in tests.
var hashPassword = auth.HashPassword

const resetKeyPrefix = "reset:"

// User-facing messages shared by the auth and profile flows.
const (
	msgUsernameRequired = "Username is required"
	msgUsernameEmpty    = "Username cannot be empty."
	msgUsernameTaken    = "Username is already taken."
	msgEmailTaken       = "Email is already registered."
	msgEmailEmpty       = "Email cannot be empty."
	msgEmailUnchanged   = "Email is unchanged."
	msgResetEmailNeeded = "Please enter your email to reset password."
	msgFillBothFields   = "Please fill out both fields."
	msgPasswordMismatch = "Passwords do not match."
	msgUserNotFound     = "User not found."
	msgBadCredentials   = "invalid email or password"
	msgResetLinkInvalid = "reset link is invalid or has expired"
)

// AuthOptions configures password reset.
type AuthOptions struct {
	ResetTokenTTL time.Duration
	// ResetURL is the client page that receives ?token=...
	ResetURL string
}

// AuthService handles sign-up, sign-in, token verification and password reset.
// Session bookkeeping is delegated to SessionService.
type AuthService struct {
	store          store.Store
	kv             *kv.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	authEvents     *sse.AuthBroadcaster
	mailer         Mailer
	opts           AuthOptions
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	kvStore *kv.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	authEvents *sse.AuthBroadcaster,
	mailer Mailer,
	opts AuthOptions,
	logger *slog.Logger,
) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &AuthService{
		store:          store,
		kv:             kvStore,
		tokenService:   tokenService,
		sessionService: sessionService,
		authEvents:     authEvents,
		mailer:         mailer,
		opts:           opts,
		logger:         logger,
	}
}

// SignUpRequest contains the data for a new account.
type SignUpRequest struct {
	Username        string     `json:"username" validate:"required,username"`
	Email           string     `json:"email" validate:"required,email,max=254"`
	Password        string     `json:"password" validate:"required,min=8,max=1024"`
	PasswordConfirm string     `json:"password_confirm,omitempty"`
	Client          ClientInfo `json:"-"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required,email,max=254"`
	Password string     `json:"password" validate:"required,max=1024"`
	Client   ClientInfo `json:"-"`
}

// RefreshRequest contains the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string     `json:"refresh_token" validate:"required"`
	Client       ClientInfo `json:"-"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password" validate:"min=8,max=1024"`
	PasswordConfirm string `json:"password_confirm"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

type resetRecord struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SignUp creates an account and signs the new user in right away.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	if blank(req.Username) {
		return nil, domainerrors.Validation(msgUsernameRequired)
	}
	req.Username = util.NormalizeUsername(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	if req.PasswordConfirm != "" && req.PasswordConfirm != req.Password {
		return nil, domainerrors.Validation(msgPasswordMismatch)
	}

	if err := s.ensureUsernameFree(ctx, req.Username, ""); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Entity:       domain.Entity{ID: userID},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
		LastLoginAt:  time.Now(),
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, mapUserConflict(err, "create user")
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.authEvents.SignedIn(user)
	s.logger.Info("user signed up",
		"user_id", user.ID,
		"username", user.Username,
	)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same answer as a wrong password, so emails cannot be probed.
			return nil, domainerrors.InvalidCredentials(msgBadCredentials)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.InvalidCredentials(msgBadCredentials)
	}

	user.LastLoginAt = time.Now()
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to update last login time",
			"user_id", user.ID,
			"error", err,
		)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.authEvents.SignedIn(user)
	s.logger.Info("user logged in", "user_id", user.ID, "ip", req.Client.IPAddress)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// RefreshTokens rotates a refresh token into a fresh token pair.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	sessionResp, user, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, req.Client)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout ends sessionID, which must belong to userID.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("session not found")
		}
		return fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return domainerrors.Forbidden("cannot end another user's session")
	}

	if err := s.sessionService.DeleteSession(ctx, sessionID); err != nil {
		return err
	}

	s.authEvents.SignedOut(userID, sessionID)
	return nil
}

// VerifyAccessToken validates a token against a live session and returns its user.
// Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	if err := s.sessionService.ValidateSession(ctx, claims.SessionID); err != nil {
		return nil, nil, err
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// CurrentUser returns the user an access token belongs to.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	user, _, err := s.VerifyAccessToken(ctx, token)
	return user, err
}

// RequestPasswordReset emails a single-use reset link when email belongs to an account.
// Unknown emails succeed silently so accounts cannot be probed.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return domainerrors.Validation(msgResetEmailNeeded)
	}
	if err := validate.Var("email", email, "email,max=254"); err != nil {
		return err
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("password reset for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := auth.GenerateOpaqueToken()
	if err != nil {
		return err
	}

	record := resetRecord{UserID: user.ID, Email: user.Email, CreatedAt: time.Now()}
	if err := s.kv.Put(resetKeyPrefix+auth.HashToken(token), record, s.opts.ResetTokenTTL); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link, err := resetLink(s.opts.ResetURL, token)
	if err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}

	s.logger.Info("password reset requested", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a reset token, sets the new password and signs the
// user out everywhere.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if err := checkNewPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}
	if blank(req.Token) {
		return domainerrors.Validation(msgResetLinkInvalid)
	}

	var record resetRecord
	if err := s.kv.Take(resetKeyPrefix+auth.HashToken(req.Token), &record); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.TokenExpired(msgResetLinkInvalid)
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	user, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.TokenExpired(msgResetLinkInvalid)
		}
		return fmt.Errorf("get user: %w", err)
	}

	if err := setPassword(ctx, s.store, user, req.Password); err != nil {
		return err
	}

	if _, err := s.sessionService.RevokeUserSessions(ctx, user.ID); err != nil {
		return err
	}
	s.authEvents.SignedOut(user.ID, "")

	s.logger.Info("password reset", "user_id", user.ID)
	return nil
}

// ensureUsernameFree fails when username belongs to someone other than selfID.
func (s *AuthService) ensureUsernameFree(ctx context.Context, username, selfID string) error {
	return usernameFree(ctx, s.store, username, selfID)
}

func usernameFree(ctx context.Context, st store.Store, username, selfID string) error {
	existing, err := st.GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check username: %w", err)
	case existing.ID != selfID:
		return domainerrors.AlreadyExists(msgUsernameTaken)
	default:
		return nil
	}
}

// checkNewPassword runs the password-and-confirmation checks of the reset
// and settings forms, in the order the client shows them.
func checkNewPassword(password, confirm string) error {
	if password == "" || confirm == "" {
		return domainerrors.Validation(msgFillBothFields)
	}
	if password != confirm {
		return domainerrors.Validation(msgPasswordMismatch)
	}
	return validate.Var("password", password, "min=8,max=1024")
}

func setPassword(ctx context.Context, st store.Store, user *domain.User, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	user.Touch()
	if err := st.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// mapUserConflict turns unique violations on users into user-facing errors.
func mapUserConflict(err error, op string) error {
	switch {
	case errors.Is(err, store.ErrUsernameTaken):
		return domainerrors.AlreadyExists(msgUsernameTaken)
	case errors.Is(err, store.ErrEmailTaken):
		return domainerrors.AlreadyExists(msgEmailTaken)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// resetLink appends the token to the client reset page.
func resetLink(base, token string) (string, error) {
	if base == "" {
		base = "/reset-password"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
