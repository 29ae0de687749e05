package detect

import (
	"fmt"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/page"
)

// ArmScriptTraps wraps the page's eval and Function globals so each call
// raises an alert before forwarding to the original.
func ArmScriptTraps(host page.ScriptHost, r alert.Raiser) error {
	if host == nil {
		return fmt.Errorf("no script host on window")
	}
	if err := host.Wrap("Function", func() { r.RaiseAlert(alert.KindFunctionConstructor) }); err != nil {
		return fmt.Errorf("failed to trap Function: %w", err)
	}
	if err := host.Wrap("eval", func() { r.RaiseAlert(alert.KindEvalUsage) }); err != nil {
		return fmt.Errorf("failed to trap eval: %w", err)
	}
	return nil
}
