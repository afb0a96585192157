package logsvc

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/trezcool/classportal/core"
	"github.com/trezcool/classportal/core/user"
)

// ConsoleLogger writes leveled, structured events with zerolog.
type ConsoleLogger struct {
	zl zerolog.Logger
}

var _ core.Logger = (*ConsoleLogger)(nil)

// NewConsoleLogger writes human readable lines to w when pretty is set, JSON lines otherwise.
func NewConsoleLogger(w io.Writer, pretty, debug bool) *ConsoleLogger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &ConsoleLogger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func (l ConsoleLogger) log(ev *zerolog.Event, msg string, args []interface{}) {
	extra := 0
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			ev = ev.Err(a)
		case map[string]interface{}:
			ev = ev.Fields(a)
		case user.User:
			ev = ev.Str("user_id", a.ID).Str("username", a.Username)
		default:
			extra++
			ev = ev.Str(fmt.Sprintf("arg%d", extra), fmt.Sprintf("%+v", a))
		}
	}
	ev.Msg(msg)
}

func (l ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(l.zl.Debug(), msg, args) }
func (l ConsoleLogger) Info(msg string, args ...interface{})  { l.log(l.zl.Info(), msg, args) }
func (l ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(l.zl.Warn(), msg, args) }
func (l ConsoleLogger) Error(msg string, args ...interface{}) { l.log(l.zl.Error(), msg, args) }

func (l ConsoleLogger) Fatal(msg string, args ...interface{}) {
	l.log(l.zl.WithLevel(zerolog.FatalLevel), msg, args)
	os.Exit(1)
}
