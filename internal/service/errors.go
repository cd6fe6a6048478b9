package service

import (
	"errors"
	"fmt"

	"github.com/blog-api/internal/repository"
	"github.com/blog-api/internal/validation"
)

// Error kinds. The HTTP layer maps each kind to a status code.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// Error carries a client-facing message together with its kind
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(what string) error {
	return newError(ErrNotFound, "%s not found", what)
}

func invalid(errs []validation.ValidationError) error {
	return &Error{Kind: ErrValidation, Message: validation.Summary(errs)}
}

// fromRepository turns constraint violations into client errors and
// wraps everything else with op for the log.
func fromRepository(op string, err error, duplicateMsg string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return newError(ErrConflict, "%s", duplicateMsg)
	case errors.Is(err, repository.ErrInvalidReference):
		return newError(ErrValidation, "Referenced category, tag or comment does not exist")
	case errors.Is(err, repository.ErrValueTooLong):
		return newError(ErrValidation, "A field value is too long")
	}
	return fmt.Errorf("%s: %w", op, err)
}
