package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/securepath-labs/compliance-service/internal/models"
	"github.com/securepath-labs/compliance-service/internal/repositories"
)

// Sentinel errors for the domain. Handlers map these onto HTTP statuses.
var (
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrUserNotFound    = errors.New("user not found")

	ErrModuleNotFound        = errors.New("training module not found")
	ErrQuizNotFound          = errors.New("quiz not found")
	ErrTemplateNotFound      = errors.New("certification template not found")
	ErrCertificationNotFound = errors.New("certification not found")
	ErrProgressNotFound      = errors.New("progress record not found")

	ErrModuleHasNoQuiz            = errors.New("training module has no quiz attached")
	ErrTemplateInactive           = errors.New("certification template is not active")
	ErrNotEligible                = errors.New("user does not meet the certification requirements")
	ErrDuplicateActiveCertificate = errors.New("user already holds an active certification with this title")
	ErrCertNotActive              = errors.New("certification is not active")
	ErrCertNotRevocable           = errors.New("certification cannot be revoked in its current state")
	ErrInvalidRole                = errors.New("invalid role")
	ErrSelfRoleChange             = errors.New("users cannot change their own role")
	ErrVerificationFailed         = errors.New("no certificate matches this verification code")
)

// PermissionError reports a role-gate rejection. It names the roles that
// would have been accepted so the response is actionable.
type PermissionError struct {
	UserID        string
	Role          models.UserRole
	Operation     string
	RequiredRoles []models.UserRole
}

func (e *PermissionError) Error() string {
	roles := make([]string, len(e.RequiredRoles))
	for i, r := range e.RequiredRoles {
		roles[i] = string(r)
	}
	return fmt.Sprintf("user %s (role %s) may not perform %s; requires one of: %s",
		e.UserID, e.Role, e.Operation, strings.Join(roles, ", "))
}

// NewPermissionError creates a permission error
func NewPermissionError(userID string, role models.UserRole, operation string, required ...models.UserRole) *PermissionError {
	return &PermissionError{
		UserID:        userID,
		Role:          role,
		Operation:     operation,
		RequiredRoles: required,
	}
}

// IsPermissionError checks whether err is a role-gate rejection
func IsPermissionError(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// ValidationError reports a single-field rule violation raised by service
// logic rather than struct tags.
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

// NewValidationError creates a validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// IsValidationError checks whether err is a validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFoundError reports whether err represents any missing-entity condition
func IsNotFoundError(err error) bool {
	if repositories.IsNotFoundError(err) {
		return true
	}
	for _, sentinel := range []error{
		ErrUserNotFound, ErrModuleNotFound, ErrQuizNotFound,
		ErrTemplateNotFound, ErrCertificationNotFound, ErrProgressNotFound,
		ErrVerificationFailed,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
