package crawler

import (
	"fmt"
	"io"
	"net/url"
	"sync"
)

// Reporter receives the size of every node once it is known. Implementations
// are called from many goroutines at once.
type Reporter interface {
	Report(size uint64, u *url.URL)
}

// LineReporter prints "<size padded to 20 columns> <url>" lines.
type LineReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLineReporter writes report lines to w.
func NewLineReporter(w io.Writer) *LineReporter {
	return &LineReporter{w: w}
}

// Report writes one line; concurrent calls never interleave within a line.
func (r *LineReporter) Report(size uint64, u *url.URL) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%-20d %s\n", size, u)
}

type discardReporter struct{}

func (discardReporter) Report(uint64, *url.URL) {}
