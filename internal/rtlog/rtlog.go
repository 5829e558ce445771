// Package rtlog provides the runtime's internal diagnostic logger.
//
// It is never used for script Print() output -- that always goes through
// the host-supplied print callback. This logger is strictly for the
// context's own lifecycle events: codeblock reloads, scheduler ticks,
// debugger connect/disconnect.
package rtlog

import (
	"io"
	"io/ioutil"

	"github.com/tinscript/tinscript/internal/logio"
)

// Logger is a leveled wrapper around logio.Logger with the small set of
// levels the runtime itself emits.
type Logger struct {
	core logio.Logger
}

// New returns a Logger writing to w. A nil w discards all output.
func New(w io.WriteCloser) *Logger {
	if w == nil {
		w = nopCloser{ioutil.Discard}
	}
	log := &Logger{}
	log.core.SetOutput(w)
	return log
}

// Debugf logs a low-volume developer diagnostic.
func (log *Logger) Debugf(mess string, args ...interface{}) { log.core.Printf("debug", mess, args...) }

// Infof logs a routine lifecycle event (codeblock reload, scheduler tick).
func (log *Logger) Infof(mess string, args ...interface{}) { log.core.Printf("info", mess, args...) }

// Errorf logs an internal runtime error, distinct from a script RuntimeError.
func (log *Logger) Errorf(mess string, args ...interface{}) { log.core.Errorf(mess, args...) }

// Close flushes and releases the underlying output stream.
func (log *Logger) Close() { log.core.Close() }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
