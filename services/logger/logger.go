// Package logsvc provides the core.Logger implementations.
package logsvc

import (
	"log"
	"os"

	"github.com/trezcool/classportal/core"
)

// New returns the zerolog console logger in debug mode, the rollbar logger otherwise.
func New(conf *core.Config) core.Logger {
	if conf.Debug {
		return NewConsoleLogger(os.Stdout, true, true)
	}
	std := log.New(os.Stdout, conf.AppName+" : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return NewRollbarLogger(std, conf)
}

type closer interface {
	Close()
}

// Close flushes a logger that queues events, such as RollbarLogger. Other loggers are left as is.
func Close(l core.Logger) {
	if c, ok := l.(closer); ok {
		c.Close()
	}
}
