package testutil

import (
	"bytes"
	"log/slog"
	"sync"

	"nfl-scoreboard-service/internal/logging"
)

// LogBuffer collects log output written from any goroutine.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns everything logged so far.
func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Len reports the number of buffered bytes.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// NewBufferLogger returns a debug-level text logger built like the service logger,
// writing to the returned buffer.
func NewBufferLogger() (*slog.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	logger := logging.NewLogger(logging.Config{Level: "debug", Output: buf})
	return logger, buf
}
