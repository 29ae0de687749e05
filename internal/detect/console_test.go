package detect

import (
	"bytes"
	"testing"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/logging"
)

func TestConsoleTrapFiresOnlyWhenInspecting(t *testing.T) {
	tests := []struct {
		name       string
		inspecting bool
		want       int
	}{
		{name: "closed console", inspecting: false, want: 0},
		{name: "open console", inspecting: true, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			var buf bytes.Buffer
			trap := NewConsoleTrap(logging.NewConsole(&buf, tt.inspecting), sink)

			trap.Check()

			if got := sink.count(alert.KindConsoleAccess); got != tt.want {
				t.Errorf("expected %d CONSOLE_ACCESS alerts, got %d", tt.want, got)
			}
		})
	}
}

func TestConsoleTrapFiresPerCheck(t *testing.T) {
	sink := &recordingSink{}
	trap := NewConsoleTrap(logging.NewConsole(&bytes.Buffer{}, true), sink)

	for i := 0; i < 3; i++ {
		trap.Check()
	}
	if got := sink.count(alert.KindConsoleAccess); got != 3 {
		t.Errorf("expected one alert per check, got %d", got)
	}
}

func TestRecordConsoleLogsEventsWithoutAlerts(t *testing.T) {
	sink := &recordingSink{}
	var buf bytes.Buffer
	console := RecordConsole(logging.NewConsole(&buf, false), sink)

	console.Info("hello from the page")
	console.Debug("hidden while not inspecting")

	if got := sink.eventCount(alert.EventConsoleAccess); got != 1 {
		t.Errorf("expected 1 console_access event, got %d", got)
	}
	if sink.total() != 0 {
		t.Errorf("expected no alerts, got %d", sink.total())
	}
	if !bytes.Contains(buf.Bytes(), []byte("hello from the page")) {
		t.Error("expected entry to still reach the console")
	}
}
