package runner

import "time"

// Result holds the outcome of one Run.
type Result struct {
	RunID     string   // unique identifier for this run
	Args      []string // argv as requested
	Strategy  string   // "pty" or "buffered"
	ExitCode  int      // -1 when the child was killed by a signal
	HadStdout bool     // stdout produced at least one byte
	HadStderr bool     // stderr produced at least one byte
	Output    []byte   // captured bytes, capture mode only, never longer than the cap
	Truncated bool     // output exceeded the cap and the child was killed
	Duration  time.Duration
}
