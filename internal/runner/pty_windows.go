//go:build windows

package runner

import (
	"errors"
	"io"
	"os"
)

func PTYStrategy() (Strategy, error) {
	return nil, ErrUnsupported
}

func detectStrategy() Strategy {
	return bufferedStrategy{}
}

func isClosedChannel(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed)
}
