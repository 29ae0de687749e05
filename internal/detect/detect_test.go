package detect

import (
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/page"
)

// recordingSink collects what detectors report.
type recordingSink struct {
	mu     sync.Mutex
	alerts []alert.Kind
	events []string
}

func (s *recordingSink) RaiseAlert(kind alert.Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, kind)
}

func (s *recordingSink) LogEvent(kind string, _ any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, kind)
}

func (s *recordingSink) count(kind alert.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.alerts {
		if k == kind {
			n++
		}
	}
	return n
}

func (s *recordingSink) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.alerts)
}

func (s *recordingSink) eventCount(kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, k := range s.events {
		if k == kind {
			n++
		}
	}
	return n
}

func newTestDocument(t *testing.T, src string) *page.Document {
	t.Helper()
	doc, err := page.LoadString(src, "https://portfolio.example.com/")
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}
	return doc
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
