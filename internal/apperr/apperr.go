package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds distinguish client-facing failures so handlers can map them
// to an HTTP status without inspecting error strings.
var (
	ErrNotFound  = errors.New("not found")
	ErrInvalid   = errors.New("invalid input")
	ErrForbidden = errors.New("forbidden")
)

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}

func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

func IsNotFound(err error) bool  { return errors.Is(err, ErrNotFound) }
func IsInvalid(err error) bool   { return errors.Is(err, ErrInvalid) }
func IsForbidden(err error) bool { return errors.Is(err, ErrForbidden) }
