package apperror

import (
	"github.com/pkg/errors"
)

// NotFoundError is returned when a referenced record does not exist
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// ConflictError is returned on uniqueness violations and already-taken assignments
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// ValidationError is returned when input breaks a business rule
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NotFound(message string) error {
	return &NotFoundError{Message: message}
}

func Conflict(message string) error {
	return &ConflictError{Message: message}
}

func Validation(message string, fields ...map[string]string) error {
	err := &ValidationError{Message: message}
	if len(fields) > 0 {
		err.Fields = fields[0]
	}
	return err
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err, or anything it wraps, is a ConflictError
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsValidation reports whether err, or anything it wraps, is a ValidationError
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
