// Package telemetry provides structured, leveled logging for the demo CLI
// and its optional Stream observers. The core Stream never logs (spec.md
// §7: errors are returned, not reported); this package exists entirely for
// the driver and any opt-in SpeedObserver/diagnostics wired around it.
package telemetry

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger wraps a charmbracelet/log.Logger; ForStream attaches the stream
// correlation id that speedyaudio components log with.
type Logger struct {
	*log.Logger
}

// New builds a Logger writing to w at the given level. Pass os.Stderr and
// log.InfoLevel for normal CLI operation, or a file handle and
// log.DebugLevel for the cmd/speedy --debug flag (the teacher's own
// `jivetalking-debug.log` pattern, upgraded from a bare fprintf closure to
// structured fields).
func New(w io.Writer, level log.Level) *Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{Logger: l}
}

// Discard is a Logger that drops everything, for tests and library callers
// that don't want CLI-style output.
func Discard() *Logger {
	return New(io.Discard, log.FatalLevel+1)
}

// NewDebugFile opens (truncating) the given path for debug-level logging,
// mirroring cmd/jivetalking's `--debug` -> `jivetalking-debug.log` flag.
// The caller owns closing the returned file.
func NewDebugFile(path string) (*Logger, *os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return New(f, log.DebugLevel), f, nil
}

// ForStream returns a child logger annotated with a stream correlation id,
// the pattern every per-stream log line in cmd/speedy uses.
func (l *Logger) ForStream(streamID string) *Logger {
	return &Logger{Logger: l.Logger.With("stream", streamID)}
}
