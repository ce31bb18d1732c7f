package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownCollection is returned for collection keys that are not registered.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrEmptyImport is returned when an import batch has no rows.
	ErrEmptyImport = errors.New("no rows to import")
)

// ParseError reports malformed or empty CSV input. Imports are aborted
// before any store call when parsing fails.
type ParseError struct {
	Line int // 1-based physical line, 0 when not line specific
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("csv parse error: line %d: %s", e.Line, e.Msg)
	}
	return "csv parse error: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// StoreError wraps a failure from the external store.
type StoreError struct {
	Op         string // select, insert, update, delete, delete_all, upsert
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError represents a rejected field value.
type ValidationError struct {
	Field   string // Internal field name
	Value   string // The rejected value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	}
	return "validation: " + e.Message
}

// storeErr wraps err as a StoreError unless it is nil or already one.
func storeErr(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}
