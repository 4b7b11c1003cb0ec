package core

import (
	"errors"
	"fmt"
	"strings"
)

// Failure kinds surfaced by the repository layer. Callers match them with errors.Is.
var (
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username taken")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// Kind names a failure for logs and user-facing messages.
type Kind string

const (
	KindNone               Kind = ""
	KindIntegrityViolation Kind = "integrity_violation"
	KindNotFound           Kind = "not_found"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUsernameTaken      Kind = "username_taken"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindInvalidInput       Kind = "invalid_input"
	KindUnknown            Kind = "unknown"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrUsernameTaken, KindUsernameTaken},
	{ErrNotFound, KindNotFound},
	{ErrIntegrityViolation, KindIntegrityViolation},
	{ErrStorageUnavailable, KindStorageUnavailable},
}

// KindOf reports which failure kind err carries.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

type ValidationError struct {
	Field string
	Msg   string
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func IsValidationError(err error) bool {
	var validationError *ValidationError
	return errors.As(err, &validationError)
}

// ValidationErrors collects every problem found in one input.
type ValidationErrors struct {
	Errors []error
}

func (ve *ValidationErrors) Add(err error) {
	ve.Errors = append(ve.Errors, err)
}

func (ve *ValidationErrors) Error() string {
	msgs := make([]string, len(ve.Errors))
	for i, err := range ve.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("multiple validation errors: %s", strings.Join(msgs, "; "))
}

func (ve *ValidationErrors) Unwrap() []error {
	return append([]error{ErrInvalidInput}, ve.Errors...)
}

// Err returns nil, the single error, or the aggregate.
func (ve *ValidationErrors) Err() error {
	switch len(ve.Errors) {
	case 0:
		return nil
	case 1:
		return ve.Errors[0]
	default:
		return ve
	}
}
