package page

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Input event types the page dispatches.
const (
	EventContextMenu = "contextmenu"
	EventSelectStart = "selectstart"
	EventKeyDown     = "keydown"
)

// InputEvent is a user input delivered to the page.
type InputEvent struct {
	Type  string
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
	Meta  bool
}

// Combo renders a keydown as e.g. "ctrl+shift+i".
func (e InputEvent) Combo() string {
	var parts []string
	if e.Ctrl {
		parts = append(parts, "ctrl")
	}
	if e.Meta {
		parts = append(parts, "meta")
	}
	if e.Alt {
		parts = append(parts, "alt")
	}
	if e.Shift {
		parts = append(parts, "shift")
	}
	parts = append(parts, strings.ToLower(e.Key))
	return strings.Join(parts, "+")
}

// ScriptHost is the page's script runtime as seen by detectors: a named
// global function can be wrapped so before runs ahead of every call.
type ScriptHost interface {
	Wrap(global string, before func()) error
}

// Window bundles a document with the collaborators page code reaches through:
// the fetch-style and XHR-style clients, the console, and the script host.
type Window struct {
	Document *Document
	Fetch    *http.Client
	XHR      *resty.Client
	Console  *zap.Logger
	Scripts  ScriptHost

	mu        sync.Mutex
	listeners []func(InputEvent) bool
	owner     any
}

// NewWindow creates a window around doc with default outbound clients.
// A nil console discards output.
func NewWindow(doc *Document, console *zap.Logger) *Window {
	if console == nil {
		console = zap.NewNop()
	}
	return &Window{
		Document: doc,
		Fetch:    &http.Client{Timeout: 30 * time.Second},
		XHR:      resty.New().SetTimeout(30 * time.Second),
		Console:  console,
	}
}

// AddInputListener registers fn for input events. Returning false cancels the event.
func (w *Window) AddInputListener(fn func(InputEvent) bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Dispatch delivers ev to every listener and reports whether the default
// action still happens.
func (w *Window) Dispatch(ev InputEvent) bool {
	w.mu.Lock()
	fns := append([]func(InputEvent) bool(nil), w.listeners...)
	w.mu.Unlock()

	allowed := true
	for _, fn := range fns {
		if !fn(ev) {
			allowed = false
		}
	}
	return allowed
}

// Claim records owner as the window's single protector. It reports false
// when a different owner already holds the window.
func (w *Window) Claim(owner any) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.owner != nil && w.owner != owner {
		return false
	}
	w.owner = owner
	return true
}
