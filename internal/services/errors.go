package services

import (
	"errors"
	"fmt"

	"github.com/localnerve/obrasdb/internal/database"
)

// Domain errors. Callers match them with errors.Is; the wrapped message carries the ids involved.
var (
	ErrInvalidLocationKind = errors.New("invalid location kind")
	ErrOwnershipMismatch   = errors.New("ownership mismatch")
	ErrAlreadyAssigned     = errors.New("element already assigned")
	ErrNoOpenAssignment    = errors.New("no open assignment")
	ErrInvalidStatus       = errors.New("invalid missing status")
	ErrNotFound            = errors.New("not found")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrInvalidInput        = errors.New("invalid input")
)

// notFound wraps ErrNotFound with the missing record.
func notFound(table string, id uint64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, table, id)
}

// translate maps persistence errors onto domain errors, leaving everything else untouched.
func translate(err error, table string, id uint64) error {
	switch {
	case err == nil:
		return nil
	case database.IsRecordNotFound(err):
		return notFound(table, id)
	case database.IsDuplicateKey(err):
		return fmt.Errorf("%w: %s %d: %v", ErrConcurrencyConflict, table, id, err)
	}
	return err
}

// IsDomainError reports whether err is one of the domain errors above (a 4xx for the HTTP layer).
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrInvalidLocationKind, ErrOwnershipMismatch, ErrAlreadyAssigned, ErrNoOpenAssignment,
		ErrInvalidStatus, ErrNotFound, ErrConcurrencyConflict, ErrInvalidInput,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
