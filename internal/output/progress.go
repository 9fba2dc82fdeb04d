package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const clearLine = "\r\x1b[K"

// ProgressLine redraws a single status line in place.
type ProgressLine struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	start time.Time
}

func NewProgressLine(w io.Writer) *ProgressLine {
	width := 80
	if f, ok := w.(*os.File); ok {
		width = terminalWidth(f)
	}
	return &ProgressLine{w: w, width: width}
}

func (p *ProgressLine) Update(done, total int64, label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		p.start = time.Now()
	}
	barWidth := min(30, max(10, p.width/4))
	line := fmt.Sprintf("%s %s/%s %s %s",
		PrintProgressBar(done, total, barWidth),
		FormatBytes(uint64(max(done, 0))),
		FormatBytes(uint64(max(total, 0))),
		FDebug(FormatSpeed(done, time.Since(p.start).Seconds())),
		FStream(label),
	)
	fmt.Fprint(p.w, clearLine+line)
}

// Clear blanks the line; the speed measurement keeps running across files.
func (p *ProgressLine) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.w, clearLine)
}
