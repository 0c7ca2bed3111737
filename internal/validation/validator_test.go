package validation_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/validation"
)

type signUp struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
	Confirm  string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type challenge struct {
	Title     string    `json:"title" validate:"notblank,max=120"`
	StartAt   time.Time `json:"start_at" validate:"required"`
	ExpiresAt time.Time `json:"expires_at" validate:"required,gtefield=StartAt"`
}

func details(t *testing.T, err error) map[string]string {
	t.Helper()
	var derr *domainerrors.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
	assert.Equal(t, http.StatusBadRequest, derr.HTTPStatus())
	d, ok := derr.Details.(map[string]string)
	require.True(t, ok)
	return d
}

func TestValidator_Success(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Validate(signUp{Username: "alice", Email: "a@example.com", Password: "password123", Confirm: "password123"}))
}

func TestValidator_FieldErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name  string
		req   signUp
		field string
		msg   string
	}{
		{"missing username", signUp{Email: "a@example.com", Password: "password123", Confirm: "password123"}, "username", "is required"},
		{"short username", signUp{Username: " a ", Email: "a@example.com", Password: "password123", Confirm: "password123"}, "username", "must be 2 to 32 characters"},
		{"bad email", signUp{Username: "alice", Email: "nope", Password: "password123", Confirm: "password123"}, "email", "must be a valid email address"},
		{"short password", signUp{Username: "alice", Email: "a@example.com", Password: "short", Confirm: "short"}, "password", "must be at least 8 characters"},
		{"mismatch", signUp{Username: "alice", Email: "a@example.com", Password: "password123", Confirm: "password124"}, "password_confirm", "must match Password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			d := details(t, err)
			assert.Equal(t, tt.msg, d[tt.field])
			assert.Equal(t, tt.field+" "+tt.msg, err.Error())
		})
	}
}

func TestValidator_NotBlankAndDates(t *testing.T) {
	v := validation.New()
	now := time.Now()

	err := v.Validate(challenge{Title: "   ", StartAt: now, ExpiresAt: now.Add(time.Hour)})
	assert.Equal(t, "is required", details(t, err)["title"])

	err = v.Validate(challenge{Title: "Plank", StartAt: now, ExpiresAt: now.Add(-time.Hour)})
	assert.Equal(t, "must not be before StartAt", details(t, err)["expires_at"])

	err = v.Validate(challenge{Title: "Plank"})
	d := details(t, err)
	assert.Equal(t, "is required", d["start_at"])
	assert.Equal(t, "is required", d["expires_at"])
	assert.Equal(t, "validation failed", err.Error())

	assert.NoError(t, v.Validate(challenge{Title: "Plank", StartAt: now, ExpiresAt: now}))
}

func TestValidator_Var(t *testing.T) {
	v := validation.New()
	assert.NoError(t, v.Var("email", "a@example.com", "required,email"))

	err := v.Var("email", "", "required,email")
	assert.Equal(t, "is required", details(t, err)["email"])
}
