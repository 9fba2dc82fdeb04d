package fetch

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Mismatch is what a Decider is shown when a file fails verification.
type Mismatch struct {
	URL      string
	Path     string
	Expected Digests
	Actual   Digests
}

// Decider returns true to keep a file that failed verification.
type Decider func(m Mismatch) bool

func AlwaysContinue(Mismatch) bool { return true }

func AlwaysAbort(Mismatch) bool { return false }

// TerminalPrompt prints expected against actual on out and reads one line from
// in. An empty answer, "y" and "Y" continue; anything else, including end of
// input, aborts.
func TerminalPrompt(in io.Reader, out io.Writer) Decider {
	reader := bufio.NewReader(in)
	return func(m Mismatch) bool {
		fmt.Fprintf(out, "INVALID DOWNLOAD %s\n", m.URL)
		fmt.Fprintf(out, "  expected: %s\n", m.Expected)
		fmt.Fprintf(out, "  actual:   %s\n", m.Actual)
		fmt.Fprint(out, "Someone may be trying to attack you. Continue? (Y/n): ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(out)
			return false
		}
		answer := strings.TrimRight(line, "\r\n")
		if answer == "" || answer == "y" || answer == "Y" {
			return true
		}
		fmt.Fprintf(out, "you typed %q, aborting\n", answer)
		return false
	}
}
