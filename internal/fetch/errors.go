package fetch

import (
	"errors"
	"fmt"
	"strings"
)

var ErrDeclined = errors.New("download rejected by user")

// CorruptPartialError means the local file is already longer than the
// artifact. Nothing is fetched.
type CorruptPartialError struct {
	Path     string
	Size     int64
	Expected int64
}

func (e *CorruptPartialError) Error() string {
	return fmt.Sprintf("corrupt partial download %s: %d bytes on disk, expected %d", e.Path, e.Size, e.Expected)
}

// IntegrityError is returned when a mismatch was declined.
type IntegrityError struct {
	URL      string
	Path     string
	Expected Digests
	Actual   Digests
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("invalid download %s: %s differ", e.URL, strings.Join(e.Actual.Mismatches(e.Expected), ", "))
}

func (e *IntegrityError) Unwrap() error {
	return ErrDeclined
}

type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
