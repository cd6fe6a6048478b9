package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidReference is returned when a foreign key does not resolve
	ErrInvalidReference = errors.New("referenced record does not exist")
	// ErrValueTooLong is returned when a value does not fit its column
	ErrValueTooLong = errors.New("value too long")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidTextRep      = "22P02"
	pqStringTooLong       = "22001"
)

// classify maps driver errors onto the package's sentinel errors,
// keeping the constraint name for context.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case pqForeignKeyViolation, pqInvalidTextRep:
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	case pqStringTooLong:
		return fmt.Errorf("%w: %s", ErrValueTooLong, pqErr.Message)
	}
	return err
}

// isInvalidUUID reports whether err is postgres rejecting a malformed
// uuid literal, which lookups treat as "not found".
func isInvalidUUID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRep
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
