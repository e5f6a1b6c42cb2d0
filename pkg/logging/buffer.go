package logging

import (
	"strings"
	"sync"
)

// ringSize is how many recent log lines the capture retains.
const ringSize = 100

// LogCaptureWriter is a thread-safe writer that stores recent log lines.
type LogCaptureWriter struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// GlobalLogCapture is the singleton instance for capturing logs.
var GlobalLogCapture = &LogCaptureWriter{}

// Write implements io.Writer.
func (w *LogCaptureWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lines == nil {
		w.lines = make([]string, ringSize)
	}
	w.lines[w.next] = strings.TrimRight(string(p), "\n")
	w.next = (w.next + 1) % ringSize
	if w.next == 0 {
		w.full = true
	}
	return len(p), nil
}

// Recent returns up to n of the most recent log lines, oldest first.
func (w *LogCaptureWriter) Recent(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.lines == nil || n <= 0 {
		return nil
	}

	size := w.next
	if w.full {
		size = ringSize
	}
	if n > size {
		n = size
	}

	out := make([]string, 0, n)
	start := w.next - n
	if start < 0 {
		start += ringSize
	}
	for i := 0; i < n; i++ {
		out = append(out, w.lines[(start+i)%ringSize])
	}
	return out
}

// GetLastLine returns the most recent log line.
func (w *LogCaptureWriter) GetLastLine() string {
	recent := w.Recent(1)
	if len(recent) == 0 {
		return ""
	}
	return recent[0]
}
