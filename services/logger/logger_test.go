package logsvc

import (
	"io"
	"testing"

	"github.com/trezcool/classportal/core"
)

type queuedLogger struct {
	core.NopLogger
	closed int
}

func (l *queuedLogger) Close() { l.closed++ }

func TestClose(t *testing.T) {
	l := &queuedLogger{}
	Close(l)
	if l.closed != 1 {
		t.Errorf("Close() flushed %d times, want 1", l.closed)
	}

	// loggers without a queue are skipped
	Close(core.NopLogger{})
	Close(NewConsoleLogger(io.Discard, false, false))
}
