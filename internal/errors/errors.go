// Package errors provides the tagged error taxonomy shared by every layer of the
// bucket list server.
//
// Every error that crosses a package boundary is an *Error carrying exactly one
// Kind. Handlers, services and repositories branch on the Kind (or the Code for
// HTTP mapping) instead of inspecting messages.
//
// Usage:
//
//	// In repositories - classify once at the adapter boundary
//	if errors.Is(err, sql.ErrNoRows) {
//	    return errors.NotFound("bucket_item", id)
//	}
//
//	// In services - branch on the tag
//	switch errors.KindOf(err) {
//	case errors.KindNotFound:
//	    ...
//	case errors.KindBusinessRule:
//	    ...
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Kind is the discriminating tag of an Error. The set is closed.
type Kind string

// Error kinds.
const (
	KindValidation     Kind = "ValidationError"
	KindNotFound       Kind = "NotFoundError"
	KindDatabase       Kind = "DatabaseError"
	KindBusinessRule   Kind = "BusinessRuleError"
	KindAuthentication Kind = "AuthenticationError"
	KindNetwork        Kind = "NetworkError"
	KindApplication    Kind = "ApplicationError"
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeValidation         Code = "VALIDATION"
	CodeBusinessRule       Code = "BUSINESS_RULE"
	CodeDatabase           Code = "DATABASE"
	CodeUnavailable        Code = "UNAVAILABLE"
	CodeInternal           Code = "INTERNAL"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists:
		return http.StatusConflict
	case CodeUnauthorized, CodeInvalidCredentials, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	case CodeBusinessRule:
		return http.StatusUnprocessableEntity
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Database error codes reported in Error.DBCode.
const (
	DBCodeBusy       = "busy"
	DBCodeLocked     = "locked"
	DBCodeTimeout    = "timeout"
	DBCodeConnection = "connection"
	DBCodeConstraint = "constraint"
	DBCodeUnique     = "unique_violation"
	DBCodeForeignKey = "foreign_key_violation"
	DBCodeCanceled   = "canceled"
	DBCodeUnknown    = "unknown"
)

// Error is a tagged domain error. Only the fields belonging to its Kind are set.
type Error struct {
	Kind    Kind   `json:"type"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`

	// ValidationError
	Field string `json:"field,omitempty"`
	// NotFoundError
	Resource   string `json:"resource,omitempty"`
	ResourceID string `json:"id,omitempty"`
	// DatabaseError
	Operation string `json:"operation,omitempty"`
	DBCode    string `json:"db_code,omitempty"`
	// BusinessRuleError
	Rule    string         `json:"rule,omitempty"`
	Context map[string]any `json:"context,omitempty"`

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code and, when the target
// names one, the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	if t.Kind != "" && t.Kind != e.Kind {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Cause returns the wrapped error, if any.
func (e *Error) Cause() error {
	return e.cause
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// WithCode returns a copy of the error with a different Code.
func (e *Error) WithCode(code Code) *Error {
	c := *e
	c.Code = code
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrUnauthorized       = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrValidation         = &Error{Code: CodeValidation, Message: "validation error"}
	ErrBusinessRule       = &Error{Code: CodeBusinessRule, Message: "business rule violated"}
	ErrDatabase           = &Error{Code: CodeDatabase, Message: "database error"}
	ErrInternal           = &Error{Code: CodeInternal, Message: "internal error"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "invalid credentials"}
	ErrTokenExpired       = &Error{Code: CodeTokenExpired, Message: "token expired"}
)

// Validation creates a ValidationError for a single field.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Field: field, Message: msg}
}

// Validationf creates a ValidationError with a formatted message.
func Validationf(field, format string, args ...any) *Error {
	return Validation(field, fmt.Sprintf(format, args...))
}

// ValidationWithDetails creates a ValidationError carrying per-field details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg, Details: details}
}

// NotFound creates a NotFoundError for the given resource and identifier.
func NotFound(resource, id string) *Error {
	return &Error{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		Resource:   resource,
		ResourceID: id,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// Database creates a DatabaseError. code is one of the DBCode constants.
func Database(operation, msg, code string, cause error) *Error {
	if code == "" {
		code = DBCodeUnknown
	}
	return &Error{
		Kind:      KindDatabase,
		Code:      CodeDatabase,
		Operation: operation,
		DBCode:    code,
		Message:   msg,
		cause:     cause,
	}
}

// BusinessRule creates a BusinessRuleError.
func BusinessRule(rule, msg string, context map[string]any) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeBusinessRule, Rule: rule, Message: msg, Context: context}
}

// AlreadyExists creates a BusinessRuleError reported as a conflict.
func AlreadyExists(rule, msg string) *Error {
	return &Error{Kind: KindBusinessRule, Code: CodeAlreadyExists, Rule: rule, Message: msg}
}

// Authentication creates an AuthenticationError.
func Authentication(msg string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeUnauthorized, Message: msg}
}

// Unauthorized is an alias of Authentication kept for handler readability.
func Unauthorized(msg string) *Error {
	return Authentication(msg)
}

// InvalidCredentials creates an AuthenticationError for failed logins.
func InvalidCredentials(msg string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeInvalidCredentials, Message: msg}
}

// TokenExpired creates an AuthenticationError for expired tokens.
func TokenExpired(msg string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeTokenExpired, Message: msg}
}

// Forbidden creates an AuthenticationError for authenticated callers lacking access.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeForbidden, Message: msg}
}

// Network creates a NetworkError.
func Network(msg string, cause error) *Error {
	return &Error{Kind: KindNetwork, Code: CodeUnavailable, Message: msg, cause: cause}
}

// Application creates an ApplicationError wrapping an unexpected failure.
func Application(msg string, cause error) *Error {
	return &Error{Kind: KindApplication, Code: CodeInternal, Message: msg, cause: cause}
}

// Internal creates an ApplicationError without a cause.
func Internal(msg string) *Error {
	return Application(msg, nil)
}

// Internalf creates an ApplicationError with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Application(fmt.Sprintf(format, args...), nil)
}

// Wrap wraps an error with a code and message as an ApplicationError.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Kind: KindApplication, Code: code, Message: msg, cause: err}
}

// KindOf returns the tag of err. Context cancellation and deadlines are
// reported as network failures; any other foreign error is an application error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindNetwork
	}
	return KindApplication
}

// From converts any error into an *Error, preserving existing tags.
// Returns nil for a nil error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Network("request canceled", err)
	}
	return Application(err.Error(), err)
}

// Retryable reports whether err describes a transient failure worth retrying.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork:
		return !errors.Is(e.cause, context.Canceled)
	case KindDatabase:
		switch e.DBCode {
		case DBCodeBusy, DBCodeLocked, DBCodeTimeout, DBCodeConnection:
			return true
		}
	}
	return false
}
