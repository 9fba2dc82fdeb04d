package runner

import (
	"io"

	"golang.org/x/sync/errgroup"
)

const readSize = 4096

type source struct {
	stream Stream
	r      io.Reader
}

type event struct {
	stream Stream
	data   []byte
	err    error
}

// multiplex runs one reader per source and dispatches chunks to h from a
// single loop, in the order the reads completed. kill is called at most once:
// when h declines a chunk or a channel fails. It returns after every source
// has finished.
func multiplex(sources []source, h Handler, kill func()) error {
	events := make(chan event)
	var g errgroup.Group
	for _, src := range sources {
		g.Go(func() error {
			return pump(src, events)
		})
	}
	result := make(chan error, 1)
	go func() {
		result <- g.Wait()
		close(events)
	}()

	killed := false
	stop := func() {
		if !killed {
			killed = true
			kill()
		}
	}
	for ev := range events {
		if ev.err != nil {
			stop()
			continue
		}
		if !h.HandleChunk(ev.stream, ev.data) {
			stop()
		}
	}
	return <-result
}

func pump(src source, events chan<- event) error {
	buf := make([]byte, readSize)
	for {
		n, err := src.r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			events <- event{stream: src.stream, data: chunk}
		}
		if err != nil {
			if isClosedChannel(err) {
				return nil
			}
			events <- event{stream: src.stream, err: err}
			return &ChannelReadError{Stream: src.stream, Err: err}
		}
	}
}
