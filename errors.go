package segquery

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when the requested top-k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrNoSegments is returned when a Searcher is built without segments.
	ErrNoSegments = errors.New("at least one segment is required")

	// ErrNoQueries is returned when a search carries an empty query batch.
	ErrNoQueries = errors.New("at least one query vector is required")

	// ErrNoMatch is returned by First when no eligible record exists.
	ErrNoMatch = errors.New("no match found")
)

// ErrTopKTooLarge indicates a top-k request beyond the supported maximum.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTopKTooLarge struct {
	K     int
	Limit int
}

func (e *ErrTopKTooLarge) Error() string {
	return fmt.Sprintf("topk %d exceeds limit %d", e.K, e.Limit)
}

// ErrSegmentSearch wraps a failure from one segment of the fan-out, tagging
// it with the segment it came from.
//
// The original underlying error can be accessed via errors.Unwrap.
type ErrSegmentSearch struct {
	SegmentID int64
	cause     error
}

func (e *ErrSegmentSearch) Error() string {
	return fmt.Sprintf("segment %d: %v", e.SegmentID, e.cause)
}

func (e *ErrSegmentSearch) Unwrap() error { return e.cause }
