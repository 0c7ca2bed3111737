package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/sse"
)

func TestProfileService_ChangeUsername(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.signUp(t, "clubber")
	env.signUp(t, "Apollo")

	t.Run("empty", func(t *testing.T) {
		_, err := env.profile.ChangeUsername(ctx, me.User.ID, "   ")
		de := requireCode(t, err, domainerrors.CodeValidation)
		assert.Equal(t, "Username cannot be empty.", de.Message)
	})

	t.Run("taken by someone else", func(t *testing.T) {
		_, err := env.profile.ChangeUsername(ctx, me.User.ID, "APOLLO")
		de := requireCode(t, err, domainerrors.CodeAlreadyExists)
		assert.Equal(t, "Username is already taken.", de.Message)
	})

	t.Run("too long", func(t *testing.T) {
		_, err := env.profile.ChangeUsername(ctx, me.User.ID, "abcdefghijklmnopqrstuvwxyz0123456789")
		requireCode(t, err, domainerrors.CodeValidation)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.profile.ChangeUsername(ctx, "user-missing", "someone")
		de := requireCode(t, err, domainerrors.CodeNotFound)
		assert.Equal(t, "User not found.", de.Message)
	})

	t.Run("success publishes user_updated", func(t *testing.T) {
		sub := env.authEvents.Subscribe(me.User.ID, me.SessionID)
		defer env.authEvents.Unsubscribe(sub)

		user, err := env.profile.ChangeUsername(ctx, me.User.ID, "  Clubber   Lang ")
		require.NoError(t, err)
		assert.Equal(t, "Clubber Lang", user.Username)

		select {
		case ev := <-sub.EventChan:
			assert.Equal(t, sse.AuthUserUpdated, ev.Type)
			assert.Equal(t, "Clubber Lang", ev.User.Username)
		case <-time.After(time.Second):
			t.Fatal("no user_updated event")
		}

		stored, err := env.profile.GetProfile(ctx, me.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "Clubber Lang", stored.Username)
	})

	t.Run("case change of own name is allowed", func(t *testing.T) {
		user, err := env.profile.ChangeUsername(ctx, me.User.ID, "clubber lang")
		require.NoError(t, err)
		assert.Equal(t, "clubber lang", user.Username)
	})
}

func TestProfileService_ChangeEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.signUp(t, "duke")
	env.signUp(t, "tony")

	tests := []struct {
		name    string
		email   string
		code    domainerrors.Code
		message string
	}{
		{"empty", " ", domainerrors.CodeValidation, "Email cannot be empty."},
		{"unchanged ignoring case", "DUKE@example.com", domainerrors.CodeValidation, "Email is unchanged."},
		{"invalid", "duke-at-example", domainerrors.CodeValidation, ""},
		{"taken", "tony@example.com", domainerrors.CodeAlreadyExists, "Email is already registered."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.profile.ChangeEmail(ctx, me.User.ID, tt.email)
			de := requireCode(t, err, tt.code)
			if tt.message != "" {
				assert.Equal(t, tt.message, de.Message)
			}
		})
	}

	user, err := env.profile.ChangeEmail(ctx, me.User.ID, "duke@gym.example.com")
	require.NoError(t, err)
	assert.Equal(t, "duke@gym.example.com", user.Email)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "duke@gym.example.com", Password: "correct-horse"})
	require.NoError(t, err)
}

func TestProfileService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.signUp(t, "spider")

	err := env.profile.ChangePassword(ctx, me.User.ID, ChangePasswordRequest{Password: "new-password"})
	de := requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "Please fill out both fields.", de.Message)

	err = env.profile.ChangePassword(ctx, me.User.ID, ChangePasswordRequest{Password: "new-password", PasswordConfirm: "new-passw0rd"})
	de = requireCode(t, err, domainerrors.CodeValidation)
	assert.Equal(t, "Passwords do not match.", de.Message)

	err = env.profile.ChangePassword(ctx, me.User.ID, ChangePasswordRequest{Password: "short", PasswordConfirm: "short"})
	requireCode(t, err, domainerrors.CodeValidation)

	require.NoError(t, env.profile.ChangePassword(ctx, me.User.ID, ChangePasswordRequest{
		Password:        "new-password",
		PasswordConfirm: "new-password",
	}))

	_, err = env.auth.Login(ctx, LoginRequest{Email: "spider@example.com", Password: "new-password"})
	require.NoError(t, err)

	// Other sessions stay signed in.
	_, err = env.auth.CurrentUser(ctx, me.AccessToken)
	require.NoError(t, err)
}
