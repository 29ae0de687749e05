package detect

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/logging"
	"github.com/ppiankov/pagewarden/internal/page"
	"github.com/ppiankov/pagewarden/internal/script"
)

func TestTimingProbe(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{name: "fast", elapsed: time.Millisecond, want: false},
		{name: "at threshold", elapsed: 100 * time.Millisecond, want: false},
		{name: "paused", elapsed: 101 * time.Millisecond, want: true},
		{name: "stepped", elapsed: 3 * time.Second, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			yield := YieldFunc(func() time.Duration { return tt.elapsed })
			p := NewTimingProbe(sink, yield, 100*time.Millisecond)

			if got := p.Check(); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
			wantAlerts := 0
			if tt.want {
				wantAlerts = 1
			}
			if sink.count(alert.KindDebuggerTiming) != wantAlerts {
				t.Errorf("expected %d DEBUGGER_TIMING alerts, got %d", wantAlerts, sink.count(alert.KindDebuggerTiming))
			}
		})
	}
}

func TestTimingProbeNilYield(t *testing.T) {
	sink := &recordingSink{}
	p := NewTimingProbe(sink, nil, time.Second)
	if p.Check() {
		t.Error("expected empty section to stay under threshold")
	}
}

func TestTimingProbeIgnoresBusyPageScript(t *testing.T) {
	doc := newTestDocument(t, "<html><body></body></html>")
	win := page.NewWindow(doc, logging.NewConsole(&bytes.Buffer{}, false))
	rt, err := script.New(win, script.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := rt.Execute(context.Background(),
			`document.append("body", "<p id=\"busy\"></p>"); var s = Date.now(); while (Date.now() - s < 400) {}`)
		done <- err
	}()
	waitFor(t, "busy script start", func() bool { return doc.Count("#busy") == 1 })

	sink := &recordingSink{}
	p := NewTimingProbe(sink, rt, 100*time.Millisecond)
	if p.Check() {
		t.Error("expected no alert while a page script is running")
	}
	if sink.count(alert.KindDebuggerTiming) != 0 {
		t.Errorf("expected 0 DEBUGGER_TIMING alerts, got %d", sink.count(alert.KindDebuggerTiming))
	}
	if err := <-done; err != nil {
		t.Fatalf("busy script: %v", err)
	}
}
