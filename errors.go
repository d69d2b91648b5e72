package queries

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrRowNotFound is returned by single-row operations when the query
	// produced no rows. It matches sql.ErrNoRows under errors.Is.
	ErrRowNotFound = fmt.Errorf("queries: row not found: %w", sql.ErrNoRows)

	// ErrMultipleRowsFound is returned when an operation that expects at most
	// one row receives a second one.
	ErrMultipleRowsFound = errors.New("queries: multiple rows found when at most one was expected")

	// ErrStreamConsumed is yielded when a stream is iterated a second time.
	ErrStreamConsumed = errors.New("queries: stream already consumed")

	// ErrTxBusy is returned when a transaction-bound receiver is used while
	// another call still holds the transaction.
	ErrTxBusy = errors.New("queries: transaction is in use by another call")

	// ErrTxClosed is returned by any call on a transaction-bound receiver
	// after Commit or Rollback.
	ErrTxClosed = errors.New("queries: transaction already committed or rolled back")
)

// DecodeError reports a row that could not be decoded into the record type.
type DecodeError struct {
	// Row is the zero-based position of the row in the result.
	Row int
	// Column is the offending column, or "" when the failure is not tied to
	// one column (for instance a column count mismatch).
	Column string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("queries: decode row %d column %q: %v", e.Row, e.Column, e.Err)
	}
	return fmt.Sprintf("queries: decode row %d: %v", e.Row, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
