package detect

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/pagewarden/internal/alert"
)

// consoleProbe raises an alert when something renders it. A console whose
// debug output is disabled never encodes the field, so nothing fires.
type consoleProbe struct {
	raiser alert.Raiser
}

func (p consoleProbe) String() string {
	p.raiser.RaiseAlert(alert.KindConsoleAccess)
	return ""
}

// ConsoleTrap periodically logs a probe at debug level to the page console.
// Only an inspecting console (debug enabled) stringifies it.
type ConsoleTrap struct {
	console *zap.Logger
	probe   consoleProbe
}

// NewConsoleTrap creates a trap writing to console.
func NewConsoleTrap(console *zap.Logger, r alert.Raiser) *ConsoleTrap {
	return &ConsoleTrap{console: console, probe: consoleProbe{raiser: r}}
}

// Check logs the probe once.
func (t *ConsoleTrap) Check() {
	t.console.Debug("", zap.Stringer("id", t.probe))
}

// RecordConsole returns console with a hook that records every written
// entry as a console_access event. It does not raise alerts.
func RecordConsole(console *zap.Logger, rec alert.Recorder) *zap.Logger {
	return console.WithOptions(zap.Hooks(func(e zapcore.Entry) error {
		rec.LogEvent(alert.EventConsoleAccess, e.Message)
		return nil
	}))
}
