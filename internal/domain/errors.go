package domain

import (
	"errors"
	"strconv"
)

// RowError binds a decode or apply failure to the input line that caused it.
type RowError struct {
	Line int    // 1-based line number in the source file
	Op   string // "decode" or "apply"
	Err  error
}

func (e *RowError) Error() string {
	return "line " + strconv.Itoa(e.Line) + ": " + e.Op + ": " + e.Err.Error()
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NewRowError wraps err with its line context.
func NewRowError(line int, op string, err error) *RowError {
	return &RowError{Line: line, Op: op, Err: err}
}

// IsSkippable reports whether err only affects a single row, so that a
// skip policy may log it and carry on with the next one.
func IsSkippable(err error) bool {
	var re *RowError
	return errors.As(err, &re)
}

// ConfigError represents a configuration error (never recoverable)
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

var (
	// ErrShortRow is returned for rows with fewer fields than the record layout needs.
	ErrShortRow = errors.New("too few fields")

	// ErrInvalidAction is returned for an action field that is not a single uppercase letter.
	ErrInvalidAction = errors.New("invalid action")

	// ErrInvalidSide is returned for an unknown side code, or for an add/cancel without a book side.
	ErrInvalidSide = errors.New("invalid side")

	// ErrInvalidPrice is returned when a non-empty price is not a decimal number.
	ErrInvalidPrice = errors.New("invalid price")

	// ErrInvalidSize is returned when a non-empty size is not an integer.
	ErrInvalidSize = errors.New("invalid size")

	// ErrInputOpen is returned when the MBO input cannot be opened.
	ErrInputOpen = errors.New("cannot open input")

	// ErrOutputOpen is returned when an output sink cannot be opened.
	ErrOutputOpen = errors.New("cannot open output")
)
