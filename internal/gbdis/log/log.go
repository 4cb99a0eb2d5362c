// Package log bootstraps the process-wide slog logger.
package log

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"

	"gbdis/internal/logging"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
	current     *logging.LoggerCloser
)

// Setup installs the charm logger as the slog default handler. Only the
// first call creates the logger. debug forces the debug level regardless of
// GBDIS_LOG_LEVEL, on any call, so that a later config file can still raise
// it.
func Setup(debug bool) {
	initOnce.Do(func() {
		current = logging.NewLogger()
		slog.SetDefault(slog.New(current.Logger))
		initialized.Store(true)
	})
	if debug {
		current.SetLevel(charmlog.DebugLevel)
		current.SetReportCaller(true)
	}
}

func Initialized() bool {
	return initialized.Load()
}

// Close releases the log file, if any.
func Close() error {
	if current == nil {
		return nil
	}
	return current.Close()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
