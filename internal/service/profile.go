package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fitchallenge/fitchallenge-server/internal/domain"
	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
	"github.com/fitchallenge/fitchallenge-server/internal/util"
)

// ProfileService backs the settings screen: username, email and password changes.
type ProfileService struct {
	store      store.Store
	authEvents *sse.AuthBroadcaster
	logger     *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(store store.Store, authEvents *sse.AuthBroadcaster, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		store:      store,
		authEvents: authEvents,
		logger:     logger,
	}
}

// ChangePasswordRequest carries a new password and its confirmation.
type ChangePasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// GetProfile returns the signed-in user's account.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound(msgUserNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ChangeUsername renames the user. Usernames are unique ignoring case.
func (s *ProfileService) ChangeUsername(ctx context.Context, userID, username string) (*domain.User, error) {
	if blank(username) {
		return nil, domainerrors.Validation(msgUsernameEmpty)
	}
	username = util.NormalizeUsername(username)
	if err := validate.Var("username", username, "username"); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Username == username {
		return user, nil
	}

	if err := usernameFree(ctx, s.store, username, userID); err != nil {
		return nil, err
	}

	user.Username = username
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUserConflict(err, "update username")
	}

	s.authEvents.UserUpdated(user)
	s.logger.Info("username changed", "user_id", userID, "username", username)
	return user, nil
}

// ChangeEmail updates the sign-in email.
func (s *ProfileService) ChangeEmail(ctx context.Context, userID, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domainerrors.Validation(msgEmailEmpty)
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(user.Email, email) {
		return nil, domainerrors.Validation(msgEmailUnchanged)
	}
	if err := validate.Var("email", email, "email,max=254"); err != nil {
		return nil, err
	}

	user.Email = email
	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, mapUserConflict(err, "update email")
	}

	s.authEvents.UserUpdated(user)
	s.logger.Info("email changed", "user_id", userID)
	return user, nil
}

// ChangePassword sets a new password. Existing sessions stay signed in.
func (s *ProfileService) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	if err := checkNewPassword(req.Password, req.PasswordConfirm); err != nil {
		return err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	if err := setPassword(ctx, s.store, user, req.Password); err != nil {
		return err
	}

	s.authEvents.UserUpdated(user)
	s.logger.Info("password changed", "user_id", userID)
	return nil
}
