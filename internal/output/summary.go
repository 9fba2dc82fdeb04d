package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type summaryEntry struct {
	name string
	note string
	err  error
	at   time.Time
}

// Summary collects per-item results and prints counts plus a numbered error list.
type Summary struct {
	Total   int
	entries []summaryEntry
}

func NewSummary(total int) *Summary {
	return &Summary{Total: total}
}

func (s *Summary) Add(name, note string, err error) {
	s.entries = append(s.entries, summaryEntry{name: name, note: note, err: err, at: time.Now()})
}

func (s *Summary) Failed() int {
	n := 0
	for _, e := range s.entries {
		if e.err != nil {
			n++
		}
	}
	return n
}

func (s *Summary) Render(w io.Writer) {
	failures := s.Failed()
	fmt.Fprintln(w)
	for _, e := range s.entries {
		symbol := FSuccess(StyleSymbols["pass"])
		if e.err != nil {
			symbol = FError(StyleSymbols["fail"])
		}
		fmt.Fprintf(w, "%s%s %s %s\n", strings.Repeat(" ", 2), symbol, e.name, FDebug(e.note))
	}
	fmt.Fprintln(w, strings.Repeat(" ", 2)+FSuccess(fmt.Sprintf("Completed %d of %d", len(s.entries)-failures, s.Total)))
	if failures > 0 {
		fmt.Fprintln(w, strings.Repeat(" ", 2)+FError(fmt.Sprintf("Failed %d of %d", failures, s.Total)))
	}
	if skipped := s.Total - len(s.entries); skipped > 0 {
		fmt.Fprintln(w, strings.Repeat(" ", 2)+FWarning(fmt.Sprintf("Skipped %d of %d", skipped, s.Total)))
	}
	s.renderErrors(w)
	fmt.Fprintln(w)
}

func (s *Summary) renderErrors(w io.Writer) {
	if s.Failed() == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat(" ", 2)+errorStyle.Bold(true).Render("Errors:"))
	i := 0
	for _, e := range s.entries {
		if e.err == nil {
			continue
		}
		i++
		fmt.Fprintf(w, "%s%s %s %s\n",
			strings.Repeat(" ", 4),
			FError(fmt.Sprintf("%d.", i)),
			FDebug(fmt.Sprintf("[%s]", e.at.Format("15:04:05"))),
			FError(e.name))
		fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", 6), FError(fmt.Sprintf("Error: %v", e.err)))
	}
}
