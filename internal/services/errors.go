package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/constants"
)

var (
	ErrEmailTaken         = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrNotProjectMember   = errors.New(constants.MessageNotProjectMember)
	ErrAlreadyMember      = errors.New("user is already part of this project")
	ErrNotProjectManager  = errors.New("only project managers can perform this action")
	ErrLastManager        = errors.New("a project must keep at least one manager")
	ErrAlreadyDeleted     = errors.New("already deleted")
	ErrNotDeleted         = errors.New("record is not deleted")
	ErrSelfDemotion       = errors.New("admins cannot revoke their own admin access")
	ErrSelfDeletion       = errors.New("admins cannot delete their own account")
	ErrAdminExists        = errors.New("an admin account already exists")
)

// ValidationError collects per-field input problems
type ValidationError struct {
	Fields map[string]string
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records a problem for a field, keeping the first one
func (e *ValidationError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Err returns the validation error, or nil when nothing was recorded
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e.Fields[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries field validation details
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
