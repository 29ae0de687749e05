// Package engine is the per-session alert and escalation engine. Detectors
// report into it through alert.Sink; once the alert count passes the
// threshold the page is degraded and then navigated away, exactly once.
//
// This is a best-effort deterrence and telemetry layer. It makes page
// inspection noisier; it does not protect content.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/denylist"
	"github.com/ppiankov/pagewarden/internal/detect"
	"github.com/ppiankov/pagewarden/internal/netmon"
	"github.com/ppiankov/pagewarden/internal/page"
)

// Host is the page surface the engine degrades on strict mode.
// *page.Document satisfies it.
type Host interface {
	SetStyle(selector, property, value string)
	Navigate(url string)
	Location() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithDenylist sets the URL denylist used by network monitoring.
func WithDenylist(dl *denylist.Denylist) Option {
	return func(e *Engine) { e.denylist = dl }
}

// Engine holds the alert state of one page session.
type Engine struct {
	id       string
	host     Host
	log      *zap.Logger
	tuning   config.Tuning
	denylist *denylist.Denylist
	now      func() time.Time

	mu          sync.Mutex
	alertCount  int
	strict      bool
	events      *alert.Ring[alert.Event]
	redirect    *time.Timer
	initialized bool
	closed      bool

	// Set by Initialize.
	doc      *page.Document
	warnings bool
	sched    *detect.Scheduler
	monitor  *netmon.Monitor
	armed    []string
	overlays map[*time.Timer]struct{}
	teardown []func()
}

// New creates an engine with zero alerts for one page session.
// A nil logger discards output.
func New(host Host, log *zap.Logger, tuning config.Tuning, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	e := &Engine{
		id:       id,
		host:     host,
		log:      log.With(zap.String("session", id)),
		tuning:   tuning,
		now:      time.Now,
		events:   alert.NewRing[alert.Event](tuning.EventCapacity),
		overlays: make(map[*time.Timer]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.denylist == nil {
		e.denylist = denylist.NewDefault()
	}
	return e
}

// SessionID identifies this engine's page session.
func (e *Engine) SessionID() string { return e.id }

// RaiseAlert counts one alert and records it. Repeated kinds are not
// coalesced. The first call that takes the count past the threshold
// engages strict mode; later calls only count.
func (e *Engine) RaiseAlert(kind alert.Kind) {
	location := e.location()

	e.mu.Lock()
	e.alertCount++
	count := e.alertCount
	e.events.Push(alert.Event{
		Kind:      alert.AlertPrefix + string(kind),
		Timestamp: e.now(),
		Context:   alert.AlertContext{Kind: kind, Count: count},
		Location:  location,
	})
	engage := !e.strict && count > e.tuning.AlertThreshold
	if engage {
		e.strict = true
	}
	warn := e.warnings && !e.closed
	e.mu.Unlock()

	e.log.Warn("security alert", zap.String("kind", string(kind)), zap.Int("count", count))

	if warn {
		e.showWarning(kind, count)
	}
	if engage {
		e.enterStrictMode(count)
	}
}

// LogEvent records an informational event. It never counts toward the threshold.
func (e *Engine) LogEvent(kind string, data any) {
	location := e.location()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.events.Push(alert.Event{
		Kind:      kind,
		Timestamp: e.now(),
		Context:   data,
		Location:  location,
	})
}

// AlertCount returns the number of alerts raised so far.
func (e *Engine) AlertCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alertCount
}

// StrictModeEngaged reports whether strict mode has been entered.
func (e *Engine) StrictModeEngaged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strict
}

// Events returns the retained events, oldest first.
func (e *Engine) Events() []alert.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.events.Snapshot()
}

// Armed returns the detectors Initialize armed successfully.
func (e *Engine) Armed() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.armed...)
}

// Requests returns the network monitor's request log, or nil when network
// monitoring is not armed.
func (e *Engine) Requests() []netmon.Request {
	e.mu.Lock()
	m := e.monitor
	e.mu.Unlock()
	if m == nil {
		return nil
	}
	return m.Requests()
}

// enterStrictMode degrades the root container and schedules navigation
// away. There is no way back.
func (e *Engine) enterStrictMode(count int) {
	root := e.tuning.RootSelector
	e.host.SetStyle(root, "filter", fmt.Sprintf("blur(%s)", e.tuning.BlurRadius))
	e.host.SetStyle(root, "pointer-events", "none")

	e.log.Error("strict mode engaged",
		zap.Int("count", count),
		zap.Int("threshold", e.tuning.AlertThreshold),
		zap.Duration("redirect_in", e.tuning.RedirectDelay),
	)

	url := e.tuning.RedirectURL
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.redirect = time.AfterFunc(e.tuning.RedirectDelay, func() {
		e.log.Error("navigating away", zap.String("url", url))
		e.host.Navigate(url)
	})
}

// Close tears down detectors and pending timers. The engine keeps its
// state; a reloaded page gets a new engine.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.redirect != nil {
		e.redirect.Stop()
	}
	for t := range e.overlays {
		t.Stop()
	}
	sched := e.sched
	teardown := e.teardown
	e.teardown = nil
	e.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	for i := len(teardown) - 1; i >= 0; i-- {
		teardown[i]()
	}
}

func (e *Engine) location() string {
	if e.host == nil {
		return ""
	}
	return e.host.Location()
}
