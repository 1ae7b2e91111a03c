package diversity

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMeasure is returned when a measure name is not one of the
	// seven supported measures.
	ErrUnknownMeasure = errors.New("unknown measure")

	// ErrNegativeViewpoint is returned when a viewpoint is negative or NaN.
	ErrNegativeViewpoint = errors.New("viewpoint must be non-negative")

	// ErrClosed is returned when a metacommunity is queried after Close.
	ErrClosed = errors.New("metacommunity closed")
)

// ErrSpeciesMismatch indicates a similarity source built over a different
// species ordering than the abundance table.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrSpeciesMismatch struct {
	Expected int // species in the abundance ordering
	Actual   int // species in the similarity ordering
	cause    error
}

func (e *ErrSpeciesMismatch) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("species mismatch: %v", e.cause)
	}

	return fmt.Sprintf("species mismatch: abundance orders %d species, similarity orders %d", e.Expected, e.Actual)
}

func (e *ErrSpeciesMismatch) Unwrap() error { return e.cause }

func checkSpecies(expected, actual []string) error {
	if len(expected) != len(actual) {
		return &ErrSpeciesMismatch{Expected: len(expected), Actual: len(actual)}
	}

	for i := range expected {
		if expected[i] != actual[i] {
			return &ErrSpeciesMismatch{
				Expected: len(expected),
				Actual:   len(actual),
				cause:    fmt.Errorf("species %d is %q, want %q", i, actual[i], expected[i]),
			}
		}
	}

	return nil
}
