package runner

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCommand = errors.New("empty command")
	ErrUnsupported  = errors.New("pseudo-terminals are not supported on this platform")
)

// ExitError reports a command that was expected to succeed but exited non-zero.
type ExitError struct {
	Args   []string
	Code   int
	Output string // captured output, capture mode only
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("run(%q) returned %d", e.Args, e.Code)
}

// OutputCapError reports captured output longer than the configured cap.
// It is returned only after the killed child has been reaped.
type OutputCapError struct {
	Args  []string
	Limit int
}

func (e *OutputCapError) Error() string {
	return fmt.Sprintf("run(%q) got more than %d bytes", e.Args, e.Limit)
}

// ChannelReadError is a read failure on one of the output channels other
// than end of file or the I/O error of a closed pty slave.
type ChannelReadError struct {
	Stream Stream
	Err    error
}

func (e *ChannelReadError) Error() string {
	return fmt.Sprintf("error reading child %s: %v", e.Stream, e.Err)
}

func (e *ChannelReadError) Unwrap() error {
	return e.Err
}
