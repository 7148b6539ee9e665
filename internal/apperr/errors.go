// Package apperr holds the failure kinds shared by the sale recorder and the
// batch allocator, and their mapping onto HTTP responses.
package apperr

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindReference         Kind = "reference"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "conflict"
	KindStore             Kind = "store"
)

// ValidationError: malformed input, detected before any transaction opens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ReferenceError: a referenced item, batch or type does not exist.
type ReferenceError struct {
	Entity  string
	ID      uint
	Message string
}

func (e *ReferenceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id uint) error {
	return &ReferenceError{Entity: entity, ID: id}
}

// InsufficientStockError carries what the caller needs to re-render the cart.
type InsufficientStockError struct {
	ItemID      uint
	BatchID     uint
	BatchNumber int
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d (batch %d): requested %d, available %d",
		e.ItemID, e.BatchNumber, e.Requested, e.Available)
}

// ConflictError: a concurrent writer won; the whole operation may be retried.
type ConflictError struct {
	Message string
	ItemID  uint
	BatchID uint
	Err     error
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return e.Err }

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// StoreError wraps an unclassified persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

// Postgres SQLSTATEs raised when a transaction lost to a concurrent one.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// Store wraps err unless it already carries one of the kinds above.
// Deadlocks, serialization failures and lock timeouts become a ConflictError.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	if lostRace(err) {
		return &ConflictError{Message: fmt.Sprintf("%s: concurrent modification, try again", op), Err: err}
	}
	return &StoreError{Op: op, Err: err}
}

func lostRace(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
		return true
	}
	return false
}

// KindOf reports the kind of err, or "" when err is not one of ours.
func KindOf(err error) Kind {
	var (
		ve *ValidationError
		re *ReferenceError
		ie *InsufficientStockError
		ce *ConflictError
		se *StoreError
	)
	switch {
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &re):
		return KindReference
	case errors.As(err, &ie):
		return KindInsufficientStock
	case errors.As(err, &ce):
		return KindConflict
	case errors.As(err, &se):
		return KindStore
	}
	return ""
}
