package runner

import (
	"bytes"
	"io"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Handler receives output chunks in the order they arrived. Returning false
// asks the runner to kill the child; chunks still in flight are delivered.
type Handler interface {
	HandleChunk(s Stream, p []byte) bool
}

type HandlerFunc func(s Stream, p []byte) bool

func (f HandlerFunc) HandleChunk(s Stream, p []byte) bool {
	return f(s, p)
}

type flusher interface {
	Flush() error
}

// streamHandler re-encodes each chunk for the console and writes it through.
// transform.Writer holds back a UTF-8 sequence split across chunks until the
// rest arrives.
type streamHandler struct {
	writers [2]*transform.Writer
	targets [2]io.Writer
}

func newStreamHandler(stdout, stderr io.Writer, enc encoding.Encoding) *streamHandler {
	return &streamHandler{
		writers: [2]*transform.Writer{
			transform.NewWriter(nonEmpty{stdout}, transcoder(enc)),
			transform.NewWriter(nonEmpty{stderr}, transcoder(enc)),
		},
		targets: [2]io.Writer{stdout, stderr},
	}
}

func (h *streamHandler) HandleChunk(s Stream, p []byte) bool {
	if _, err := h.writers[s].Write(p); err != nil {
		log.Debug().Str("op", "runner/handler").Err(err).Msgf("error writing %s chunk", s)
	}
	if f, ok := h.targets[s].(flusher); ok {
		f.Flush()
	}
	return true
}

// Close flushes any partial sequence left at the end of the output.
func (h *streamHandler) Close() error {
	var firstErr error
	for i, w := range h.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if f, ok := h.targets[i].(flusher); ok {
			f.Flush()
		}
	}
	return firstErr
}

// nonEmpty drops the zero-length writes transform.Writer makes on Close.
type nonEmpty struct {
	w io.Writer
}

func (n nonEmpty) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return n.w.Write(p)
}

// captureHandler keeps up to limit bytes; limit <= 0 means unbounded.
type captureHandler struct {
	buf        bytes.Buffer
	limit      int
	alsoStderr bool
	exceeded   bool
}

func (c *captureHandler) HandleChunk(s Stream, p []byte) bool {
	if s == Stderr && !c.alsoStderr {
		return !c.exceeded
	}
	if c.exceeded {
		return false
	}
	if c.limit > 0 {
		room := c.limit - c.buf.Len()
		if len(p) > room {
			c.buf.Write(p[:room])
			c.exceeded = true
			return false
		}
	}
	c.buf.Write(p)
	return true
}

func (c *captureHandler) Bytes() []byte {
	return c.buf.Bytes()
}

// tracker records which streams produced output before delegating.
type tracker struct {
	next Handler
	res  *Result
}

func (t *tracker) HandleChunk(s Stream, p []byte) bool {
	if len(p) > 0 {
		if s == Stdout {
			t.res.HadStdout = true
		} else {
			t.res.HadStderr = true
		}
	}
	return t.next.HandleChunk(s, p)
}
