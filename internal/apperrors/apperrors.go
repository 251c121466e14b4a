// Package apperrors defines the domain error taxonomy shared by services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors. Typed errors below wrap one of these so callers can use errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrProfileIncomplete  = errors.New("profile incomplete")
	ErrParameterNotFound  = errors.New("parameter not found")
	ErrDuplicateSignature = errors.New("duplicate signature")
	ErrNoWithdrawRequest  = errors.New("no withdraw request")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrConflict           = errors.New("conflict")
)

// ValidationError reports bad input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RequiredError reports a missing required field.
func RequiredError(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ProfileIncompleteError lists the profile fields a caller's unit is missing.
type ProfileIncompleteError struct {
	Missing []string
}

func (e *ProfileIncompleteError) Error() string {
	return fmt.Sprintf("please complete your unit profile, missing fields: %v", e.Missing)
}

func (e *ProfileIncompleteError) Unwrap() error { return ErrProfileIncomplete }

// NewProfileIncompleteError creates a profile error for the missing fields.
func NewProfileIncompleteError(missing []string) error {
	return &ProfileIncompleteError{Missing: missing}
}

// ParameterNotFoundError is returned when a submitted parameter has no master catalog entry.
type ParameterNotFoundError struct {
	AwardType string
	Name      string
}

func (e *ParameterNotFoundError) Error() string {
	return fmt.Sprintf("parameter %q not found for award type %q", e.Name, e.AwardType)
}

func (e *ParameterNotFoundError) Unwrap() error { return ErrParameterNotFound }

// NewParameterNotFoundError creates a parameter lookup failure.
func NewParameterNotFoundError(awardType, name string) error {
	return &ParameterNotFoundError{AwardType: awardType, Name: name}
}

// NewDuplicateSignatureError reports a second signature for the same member under one role.
func NewDuplicateSignatureError(role, memberID string) error {
	return fmt.Errorf("%w: member %q already signed for role %q", ErrDuplicateSignature, memberID, role)
}

// NewNoWithdrawRequestError reports a withdraw decision without a pending request.
func NewNoWithdrawRequestError(id int64) error {
	return fmt.Errorf("%w: application %d has no withdraw request", ErrNoWithdrawRequest, id)
}

// NewInvalidStatusError reports an unsupported target status.
func NewInvalidStatusError(status string) error {
	return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
}

// NewForbiddenError reports an operation the caller's role may not perform.
func NewForbiddenError(message string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, message)
}

// NewConflictError reports a write against a version that changed underneath it.
func NewConflictError(resource string, id int64) error {
	return fmt.Errorf("%w: %s %d was modified concurrently", ErrConflict, resource, id)
}

func IsValidationError(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }

// HTTPStatus maps an error to the HTTP status code surfaced to the caller.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrProfileIncomplete),
		errors.Is(err, ErrParameterNotFound),
		errors.Is(err, ErrDuplicateSignature),
		errors.Is(err, ErrNoWithdrawRequest),
		errors.Is(err, ErrInvalidStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
