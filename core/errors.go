package core

import (
	"errors"
	"fmt"
	"time"
)

// UnknownTableError indicates a table name that is not in the registry.
type UnknownTableError struct {
	Table string
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("unknown table: %q", e.Table)
}

// UnknownColumnError indicates a column that does not exist in its table.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q for table %q", e.Column, e.Table)
}

// InvalidTimeRangeError indicates a resolved window whose start is after its end.
type InvalidTimeRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidTimeRangeError) Error() string {
	return fmt.Sprintf("invalid time range: start %s is after end %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// InvalidFrequencyError indicates a granularity that is not a registered tier.
type InvalidFrequencyError struct {
	Freq string
}

func (e *InvalidFrequencyError) Error() string {
	return fmt.Sprintf("invalid granularity %q, allowed: %v", e.Freq, Granularities)
}

// StoreError wraps a transport or query failure reported by the store.
type StoreError struct {
	Query string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error for query %q: %v", e.Query, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// BatchError indicates that a concurrent query batch failed as a whole.
// Partial results from sibling queries are discarded, never merged.
type BatchError struct {
	BatchID string
	Queries int
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("query batch %s (%d queries) failed: %v", e.BatchID, e.Queries, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// IsUnknownTable checks if an error (or any error in its chain) is an UnknownTableError.
func IsUnknownTable(err error) bool {
	var e *UnknownTableError
	return errors.As(err, &e)
}

// IsUnknownColumn checks if an error is an UnknownColumnError.
func IsUnknownColumn(err error) bool {
	var e *UnknownColumnError
	return errors.As(err, &e)
}

// IsInvalidTimeRange checks if an error is an InvalidTimeRangeError.
func IsInvalidTimeRange(err error) bool {
	var e *InvalidTimeRangeError
	return errors.As(err, &e)
}

// IsInvalidFrequency checks if an error is an InvalidFrequencyError.
func IsInvalidFrequency(err error) bool {
	var e *InvalidFrequencyError
	return errors.As(err, &e)
}

// IsStoreError checks if an error is a StoreError.
func IsStoreError(err error) bool {
	var e *StoreError
	return errors.As(err, &e)
}

// IsBatchError checks if an error is a BatchError.
func IsBatchError(err error) bool {
	var e *BatchError
	return errors.As(err, &e)
}
