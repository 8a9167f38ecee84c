package service

import (
	"errors"
	"fmt"

	"affiliate/internal/repository"
)

// Error kinds surfaced to callers. Anything that is none of these is a downstream failure.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// AppError carries a user-facing message alongside its kind
type AppError struct {
	Kind    error
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func (e *AppError) Is(target error) bool { return e.Kind == target }

func Validation(msg string) error   { return &AppError{Kind: ErrValidation, Message: msg} }
func NotFound(msg string) error     { return &AppError{Kind: ErrNotFound, Message: msg} }
func Conflict(msg string) error     { return &AppError{Kind: ErrConflict, Message: msg} }
func Forbidden(msg string) error    { return &AppError{Kind: ErrForbidden, Message: msg} }
func Unauthorized(msg string) error { return &AppError{Kind: ErrUnauthorized, Message: msg} }

// Message returns the user-facing text of err, or fallback for downstream failures
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}

// fromRepo turns a repository sentinel into the matching AppError and wraps anything else
func fromRepo(err error, notFoundMsg, conflictMsg string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &AppError{Kind: ErrNotFound, Message: notFoundMsg, Err: err}
	case errors.Is(err, repository.ErrConflict):
		return &AppError{Kind: ErrConflict, Message: conflictMsg, Err: err}
	default:
		return err
	}
}
