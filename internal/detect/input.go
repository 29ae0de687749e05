package detect

import (
	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/page"
)

// devtoolsCombos open the browser inspector.
var devtoolsCombos = map[string]bool{
	"f12":          true,
	"ctrl+shift+i": true,
	"ctrl+shift+j": true,
	"ctrl+shift+c": true,
	"meta+alt+i":   true,
	"meta+alt+j":   true,
}

// shortcutCombos expose page source or content.
var shortcutCombos = map[string]bool{
	"ctrl+u": true,
	"ctrl+s": true,
	"ctrl+p": true,
	"meta+u": true,
	"meta+s": true,
}

// InputGuard cancels the input events the policy blocks and records each
// cancellation as an input_blocked event.
type InputGuard struct {
	policy config.Policy
	rec    alert.Recorder
}

// GuardInput registers an InputGuard on win.
func GuardInput(win *page.Window, policy config.Policy, rec alert.Recorder) *InputGuard {
	g := &InputGuard{policy: policy, rec: rec}
	win.AddInputListener(g.Allow)
	return g
}

// Allow reports whether ev keeps its default action.
func (g *InputGuard) Allow(ev page.InputEvent) bool {
	if !g.blocks(ev) {
		return true
	}
	detail := ev.Type
	if ev.Type == page.EventKeyDown {
		detail = ev.Combo()
	}
	g.rec.LogEvent(alert.EventInputBlocked, detail)
	return false
}

func (g *InputGuard) blocks(ev page.InputEvent) bool {
	switch ev.Type {
	case page.EventContextMenu:
		return g.policy.BlockRightClick
	case page.EventSelectStart:
		return g.policy.BlockSelection
	case page.EventKeyDown:
		combo := ev.Combo()
		if g.policy.BlockDevTools && devtoolsCombos[combo] {
			return true
		}
		return g.policy.BlockKeyboardShortcuts && shortcutCombos[combo]
	}
	return false
}
