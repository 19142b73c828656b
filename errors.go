package drivekit

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by a driver matches exactly one of them
// through errors.Is.
var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrLock          = errors.New("lock failed")
	ErrIO            = errors.New("i/o failure")
	ErrDecoding      = errors.New("decoding failed")
	ErrEncoding      = errors.New("encoding failed")
	ErrReadOnly      = errors.New("driver is read-only")
	ErrClosed        = errors.New("driver closed")
	ErrNotSupported  = errors.New("operation not supported")
)

// DriverError records an error and the driver operation that caused it.
type DriverError struct {
	Op     string
	Driver string
	Path   string
	Kind   error
	Err    error
}

// NewError builds a DriverError. err may be nil when the kind says it all.
func NewError(driver, op string, kind, err error) *DriverError {
	return &DriverError{Op: op, Driver: driver, Kind: kind, Err: err}
}

// Error implements the error interface
func (e *DriverError) Error() string {
	var b strings.Builder
	b.WriteString(e.Driver)
	b.WriteByte(' ')
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteByte(' ')
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause
func (e *DriverError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IsConfiguration reports whether err is a settings or argument error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsLock reports whether an advisory lock could not be acquired or released.
func IsLock(err error) bool {
	return errors.Is(err, ErrLock)
}

// IsIO reports whether err is an open, write or read failure.
func IsIO(err error) bool {
	return errors.Is(err, ErrIO)
}

// IsDecoding reports whether received data could not be reversed.
func IsDecoding(err error) bool {
	return errors.Is(err, ErrDecoding)
}

// IsEncoding reports whether data could not be encoded for sending.
func IsEncoding(err error) bool {
	return errors.Is(err, ErrEncoding)
}

// IsReadOnly reports whether a send was rejected by a read-only driver.
func IsReadOnly(err error) bool {
	return errors.Is(err, ErrReadOnly)
}
