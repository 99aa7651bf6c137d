// Package log provides the process-wide structured logger used across
// the ring cache, wrapping go-kit/log the way the rest of the stack
// expects to find it.
package log

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the package-level logger. Callers wrap it with
// github.com/go-kit/log/level to pick a severity.
var Logger = newLogger()

func newLogger() log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(l, level.AllowAll())
}

// SetLevel swaps the minimum severity logged. name is one of
// "debug", "info", "warn", "error".
func SetLevel(name string) {
	base := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	base = log.With(base, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var opt level.Option
	switch name {
	case "debug":
		opt = level.AllowAll()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		opt = level.AllowInfo()
	}

	Logger = level.NewFilter(base, opt)
}
