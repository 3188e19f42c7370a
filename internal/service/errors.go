package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const (
	// KindAuthentication tags every credential failure.
	KindAuthentication = "authentication"
	// MsgUnableToAuthenticate is the only message returned for failed logins.
	MsgUnableToAuthenticate = "Unable to authenticate with provided credentials."

	msgEmailTaken = "user with this email already exists."
)

// ErrInvalidToken is returned when an API token is missing, unknown or expired.
var ErrInvalidToken = errors.New("invalid token")

// FieldErrors maps request fields to their error messages.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f FieldErrors) String() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(f[field], " ")))
	}
	return strings.Join(parts, ", ")
}

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.String()
}

// FieldErrors returns the offending fields and their messages.
func (e *ValidationError) FieldErrors() FieldErrors {
	return e.Fields
}

// ConstraintError reports input rejected by the user store, such as a
// duplicate email.
type ConstraintError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("constraint violated on %s: %s", e.Field, e.Message)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// FieldErrors returns the offending field and its message.
func (e *ConstraintError) FieldErrors() FieldErrors {
	return FieldErrors{e.Field: {e.Message}}
}

// AuthenticationError is the single failure for unknown users, wrong
// passwords and inactive accounts alike.
type AuthenticationError struct {
	Message string
	Kind    string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

func newAuthenticationError() *AuthenticationError {
	return &AuthenticationError{Message: MsgUnableToAuthenticate, Kind: KindAuthentication}
}
