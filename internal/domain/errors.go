package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Authentication errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Application errors
var (
	ErrApplicationExists   = errors.New("application already submitted")
	ErrApplicationNotFound = errors.New("application not found")
	ErrExpiryDateRequired  = errors.New("expiry date is required")
)

// ValidationError reports the required fields missing from a submission.
type ValidationError struct {
	MissingFields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", "))
}

// FileTooLargeError reports an attachment exceeding the per-file size limit.
type FileTooLargeError struct {
	Field string
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %s is %d bytes, exceeds limit of %d bytes", e.Field, e.Size, e.Limit)
}
