package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
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

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterErrorHandler makes huma report every error as an APIError.
// Tagged domain errors keep their code and message; internal failures are
// reported without their cause.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fields []FieldError
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return fromDomainError(domainErr)
			}

			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				fields = append(fields, FieldError{Field: detail.Location, Message: detail.Message})
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if len(fields) > 0 {
			apiErr.Details = fields
		}
		return apiErr
	}
}

func fromDomainError(e *domainerrors.Error) *APIError {
	apiErr := &APIError{
		status:  e.HTTPStatus(),
		Code:    string(e.Code),
		Message: e.Message,
		Details: e.Details,
	}

	switch e.Kind {
	case domainerrors.KindValidation:
		if e.Field != "" && apiErr.Details == nil {
			apiErr.Details = []FieldError{{Field: e.Field, Message: e.Message}}
		}
	case domainerrors.KindBusinessRule:
		if apiErr.Details == nil && (e.Rule != "" || e.Context != nil) {
			apiErr.Details = map[string]any{"rule": e.Rule, "context": e.Context}
		}
	case domainerrors.KindNotFound:
		if apiErr.Details == nil && e.Resource != "" {
			apiErr.Details = map[string]string{"resource": e.Resource, "id": e.ResourceID}
		}
	case domainerrors.KindDatabase, domainerrors.KindApplication, domainerrors.KindNetwork:
		if apiErr.status >= http.StatusInternalServerError {
			apiErr.Message = "internal server error"
			if domainerrors.Retryable(e) {
				apiErr.status = http.StatusServiceUnavailable
				apiErr.Code = string(domainerrors.CodeUnavailable)
				apiErr.Message = "service temporarily unavailable"
			}
			apiErr.Details = nil
		}
	}
	return apiErr
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}
