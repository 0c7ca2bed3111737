package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/fitchallenge/fitchallenge-server/internal/errors"
	"github.com/fitchallenge/fitchallenge-server/internal/http/response"
	"github.com/fitchallenge/fitchallenge-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	var fields map[string]string
	for _, err := range errs {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			return &APIError{
				status:  storeErr.HTTPCode(),
				Code:    response.CodeForStatus(storeErr.HTTPCode()),
				Message: storeErr.Message,
			}
		}

		var detail *huma.ErrorDetail
		if errors.As(err, &detail) {
			if fields == nil {
				fields = make(map[string]string)
			}
			fields[detail.Location] = detail.Message
		}
	}

	// Schema violations surface as VALIDATION with a 400 like every other
	// rejected input.
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	apiErr := &APIError{
		status:  status,
		Code:    response.CodeForStatus(status),
		Message: message,
	}
	if len(fields) > 0 {
		apiErr.Details = fields
	}
	return apiErr
}

// EnvelopeTransformer wraps every huma response body in the standard
// {"v":1,"success":...} envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.Envelope{
			Version: response.Version,
			Error: &response.ErrorBody{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			},
		}, nil
	}

	return response.Envelope{
		Version: response.Version,
		Success: true,
		Data:    v,
	}, nil
}
