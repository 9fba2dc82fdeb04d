//go:build !windows

package runner

import (
	"io"
	"os"
	"syscall"
	"testing"
)

func TestMultiplex_ClosedPTYIsEndOfStream(t *testing.T) {
	eio := &os.PathError{Op: "read", Path: "/dev/ptmx", Err: syscall.EIO}
	outR, outW := io.Pipe()
	go func() {
		outW.Write([]byte("done"))
		outW.Close()
	}()

	var got string
	h := HandlerFunc(func(s Stream, p []byte) bool {
		got += string(p)
		return true
	})
	err := multiplex([]source{{Stdout, outR}, {Stderr, failingReader{eio}}}, h, func() {
		t.Error("EIO must not kill the child")
	})
	if err != nil {
		t.Fatalf("multiplex: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q, want %q", got, "done")
	}
}
