package trackstore

import (
	"errors"
	"fmt"
)

// Error types represent the four error kinds a Store operation can fail
// with: IO, Format, Invariant, and Capacity.

// IOError represents an underlying file handle failure (open, read,
// write, stat).
type IOError struct {
	Operation string // "read", "write", "stat", "open", etc.
	Track     uint16 // track id, if applicable
	Offset    int64  // file offset, if applicable (-1 if not applicable)
	Message   string
	Err       error
}

func (e *IOError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("io error: %s track %d at offset %d: %s", e.Operation, e.Track, e.Offset, e.Message)
	}
	return fmt.Sprintf("io error: %s track %d: %s", e.Operation, e.Track, e.Message)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FormatError represents a failure to decode an on-disk chunk record:
// an impossible payload_size or a record truncated by a short read.
type FormatError struct {
	Track   uint16
	Offset  uint64
	Message string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format error: track %d offset %d: %s", e.Track, e.Offset, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// InvariantError represents a free-list pointer that falls outside the
// track file or off a chunk boundary, or a chain or writer referencing a
// track that is not open. A track with a bad free-list pointer must be
// considered corrupt. Cycles in the free-list are not detected.
type InvariantError struct {
	Track   uint16
	Message string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant error: track %d: %s", e.Track, e.Message)
}

// CapacityError represents a write that would exceed all addressable
// track ids (the 16-bit track id space is exhausted).
type CapacityError struct {
	Message string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("capacity error: %s", e.Message)
}

// ValidationError represents an invalid configuration or parameter.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ErrEmptyChain is returned by the stream writer when end-of-input is
// reached without a single payload having been written.
var ErrEmptyChain = errors.New("chunk chain has no chunks")

// NewIOError creates a new IOError with Offset set to -1 (not applicable).
func NewIOError(operation string, track uint16, err error) error {
	return &IOError{
		Operation: operation,
		Track:     track,
		Offset:    -1,
		Message:   err.Error(),
		Err:       err,
	}
}

// NewIOErrorAt creates a new IOError at a specific track offset.
func NewIOErrorAt(operation string, track uint16, offset uint64, err error) error {
	return &IOError{
		Operation: operation,
		Track:     track,
		Offset:    int64(offset),
		Message:   err.Error(),
		Err:       err,
	}
}

// NewFormatError creates a new FormatError.
func NewFormatError(track uint16, offset uint64, message string) error {
	return &FormatError{
		Track:   track,
		Offset:  offset,
		Message: message,
	}
}

// NewInvariantError creates a new InvariantError.
func NewInvariantError(track uint16, message string) error {
	return &InvariantError{
		Track:   track,
		Message: message,
	}
}

// NewCapacityError creates a new CapacityError.
func NewCapacityError(message string) error {
	return &CapacityError{Message: message}
}

// IsIOError reports whether err is (or wraps) an *IOError.
func IsIOError(err error) bool {
	var e *IOError
	return errors.As(err, &e)
}

// IsFormatError reports whether err is (or wraps) a *FormatError.
func IsFormatError(err error) bool {
	var e *FormatError
	return errors.As(err, &e)
}

// IsInvariantError reports whether err is (or wraps) an *InvariantError.
func IsInvariantError(err error) bool {
	var e *InvariantError
	return errors.As(err, &e)
}

// IsCapacityError reports whether err is (or wraps) a *CapacityError.
func IsCapacityError(err error) bool {
	var e *CapacityError
	return errors.As(err, &e)
}

// IsValidationError reports whether err is (or wraps) a *ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}
