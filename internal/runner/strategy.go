package runner

import (
	"bytes"
	"os"
	"os/exec"
	"sync"
)

// Strategy connects a prepared command to a Handler, runs it and waits for it.
// Execute returns the *exec.ExitError of a non-zero exit unchanged.
type Strategy interface {
	Name() string
	// Shell reports whether the command line goes through the platform shell.
	Shell() bool
	Execute(cmd *exec.Cmd, h Handler) error
}

var detected = sync.OnceValue(detectStrategy)

// DetectStrategy picks the pty strategy when a pseudo-terminal can be opened
// and the buffered strategy otherwise. The probe runs once per process.
func DetectStrategy() Strategy {
	return detected()
}

// BufferedStrategy runs the command through the shell, collects stdout and
// stderr until exit, then hands each to the handler once. There is no live
// output and no interleaving between the two streams.
func BufferedStrategy() Strategy {
	return bufferedStrategy{}
}

type bufferedStrategy struct{}

func (bufferedStrategy) Name() string { return "buffered" }

func (bufferedStrategy) Shell() bool { return true }

func (bufferedStrategy) Execute(cmd *exec.Cmd, h Handler) error {
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	err := cmd.Run()
	if stdout.Len() > 0 {
		h.HandleChunk(Stdout, stdout.Bytes())
	}
	if stderr.Len() > 0 {
		h.HandleChunk(Stderr, stderr.Bytes())
	}
	return err
}
