package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/fitchallenge/fitchallenge-server/internal/service"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/v1/profile",
		Summary:     "Get profile",
		Description: "Returns the caller's account settings",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeUsername",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile/username",
		Summary:     "Change username",
		Description: "Sets a new unique username",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleChangeUsername)

	huma.Register(s.api, huma.Operation{
		OperationID: "changeEmail",
		Method:      http.MethodPatch,
		Path:        "/api/v1/profile/email",
		Summary:     "Change email",
		Description: "Sets a new email address",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleChangeEmail)

	huma.Register(s.api, huma.Operation{
		OperationID: "changePassword",
		Method:      http.MethodPut,
		Path:        "/api/v1/profile/password",
		Summary:     "Change password",
		Description: "Sets a new password; both fields must match",
		Tags:        []string{"Profile"},
		Security:    bearerSecurity,
	}, s.handleChangePassword)
}

// === DTOs ===

// ChangeUsernameInput wraps the username change for Huma.
type ChangeUsernameInput struct {
	Body struct {
		Username string `json:"username,omitempty" doc:"New username"`
	}
}

// ChangeEmailInput wraps the email change for Huma.
type ChangeEmailInput struct {
	Body struct {
		Email string `json:"email,omitempty" doc:"New email address"`
	}
}

// ChangePasswordInput wraps the password change for Huma.
type ChangePasswordInput struct {
	Body struct {
		Password        string `json:"password,omitempty" doc:"New password"`
		PasswordConfirm string `json:"password_confirm,omitempty" doc:"New password again"`
	}
}

// === Handlers ===

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*UserOutput, error) {
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

func (s *Server) handleChangeUsername(ctx context.Context, input *ChangeUsernameInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.ChangeUsername(ctx, userID, input.Body.Username)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleChangeEmail(ctx context.Context, input *ChangeEmailInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.Profile.ChangeEmail(ctx, userID, input.Body.Email)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: mapUserResponse(user)}, nil
}

func (s *Server) handleChangePassword(ctx context.Context, input *ChangePasswordInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	err = s.services.Profile.ChangePassword(ctx, userID, service.ChangePasswordRequest{
		Password:        input.Body.Password,
		PasswordConfirm: input.Body.PasswordConfirm,
	})
	if err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Password updated"}}, nil
}
