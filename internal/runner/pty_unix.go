//go:build !windows

package runner

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// PTYStrategy gives the child a pseudo-terminal for stdout and another for
// stderr, so tools keep their interactive line buffering and progress output.
func PTYStrategy() (Strategy, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	master.Close()
	slave.Close()
	return ptyStrategy{}, nil
}

type ptyStrategy struct{}

func (ptyStrategy) Name() string { return "pty" }

func (ptyStrategy) Shell() bool { return false }

func (ptyStrategy) Execute(cmd *exec.Cmd, h Handler) error {
	outMaster, outSlave, err := openPair()
	if err != nil {
		return fmt.Errorf("error opening stdout pty: %w", err)
	}
	defer outMaster.Close()
	errMaster, errSlave, err := openPair()
	if err != nil {
		outSlave.Close()
		return fmt.Errorf("error opening stderr pty: %w", err)
	}
	defer errMaster.Close()

	cmd.Stdout = outSlave
	cmd.Stderr = errSlave
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	startErr := cmd.Start()
	// The child holds its own copies; the master sees EIO once they close.
	outSlave.Close()
	errSlave.Close()
	if startErr != nil {
		return startErr
	}

	readErr := multiplex([]source{
		{stream: Stdout, r: outMaster},
		{stream: Stderr, r: errMaster},
	}, h, func() {
		if err := cmd.Process.Kill(); err != nil {
			log.Debug().Str("op", "runner/pty").Err(err).Msg("error killing child")
		}
	})
	waitErr := cmd.Wait()
	if readErr != nil {
		return readErr
	}
	return waitErr
}

// openPair opens a pty and puts the slave in raw mode so "\n" is not
// rewritten to "\r\n" on the way through.
func openPair() (*os.File, *os.File, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, nil, err
	}
	if _, err := term.MakeRaw(int(slave.Fd())); err != nil {
		log.Debug().Str("op", "runner/pty").Err(err).Msg("could not switch pty slave to raw mode")
	}
	return master, slave, nil
}

func detectStrategy() Strategy {
	s, err := PTYStrategy()
	if err != nil {
		log.Debug().Str("op", "runner/pty").Err(err).Msg("falling back to buffered output")
		return bufferedStrategy{}
	}
	return s
}

// isClosedChannel reports the normal end of a channel: EOF on a pipe, EIO on
// a pty master whose slave side has been closed.
func isClosedChannel(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO) || errors.Is(err, os.ErrClosed)
}
