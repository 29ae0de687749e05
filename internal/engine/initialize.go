package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/config"
	"github.com/ppiankov/pagewarden/internal/detect"
	"github.com/ppiankov/pagewarden/internal/netmon"
	"github.com/ppiankov/pagewarden/internal/page"
)

// Detector names as reported by Armed and in detector_failed events.
const (
	DetectorIntegrity  = "integrity"
	DetectorWatermark  = "watermark"
	DetectorTiming     = "timing"
	DetectorConsole    = "console"
	DetectorScriptTrap = "script-traps"
	DetectorNetwork    = "network"
)

// Initialize arms the detectors the policy enables on win. It does nothing
// beyond a log line when advanced security is off. A detector that fails to
// arm is logged and recorded; the rest are still armed. A window already
// protected by another engine is left alone.
func (e *Engine) Initialize(win *page.Window, policy config.Policy) {
	if !policy.AdvancedSecurityEnabled {
		e.log.Info("advanced security disabled, skipping initialization")
		return
	}
	if !win.Claim(e) {
		e.log.Warn("window already has an engine, skipping initialization")
		return
	}

	e.mu.Lock()
	if e.initialized || e.closed {
		e.mu.Unlock()
		return
	}
	e.initialized = true
	e.doc = win.Document
	e.warnings = policy.ShowWarnings
	e.sched = detect.NewScheduler()
	e.mu.Unlock()

	e.onClose(e.sched.FollowVisibility(win.Document))

	if policy.IntegrityCheckEnabled {
		e.arm(DetectorIntegrity, func() error {
			o := detect.WatchIntegrity(win.Document, e)
			e.onClose(o.Stop)
			return nil
		})
	}

	if policy.DynamicWatermarkEnabled {
		e.arm(DetectorWatermark, func() error {
			w := detect.NewWatermarks(win.Document, detect.WatermarkOptions{
				Text:     policy.WatermarkText,
				Selector: "body",
				MinEvery: e.tuning.WatermarkMinEvery,
				MaxEvery: e.tuning.WatermarkMaxEvery,
				MinLife:  e.tuning.WatermarkMinLife,
				MaxLife:  e.tuning.WatermarkMaxLife,
				Max:      e.tuning.MaxWatermarks,
			})
			e.sched.Every(DetectorWatermark, w.Interval(), func() { w.Place() })
			e.onClose(w.Stop)
			return nil
		})
	}

	if policy.AntiTamperEnabled {
		e.arm(DetectorTiming, func() error {
			var yield detect.Yielder
			if y, ok := win.Scripts.(detect.Yielder); ok {
				yield = y
			}
			probe := detect.NewTimingProbe(e, yield, e.tuning.TimingThreshold)
			e.sched.Every(DetectorTiming, e.tuning.TimingInterval, func() { probe.Check() })
			return nil
		})
		e.arm(DetectorConsole, func() error {
			win.Console = detect.RecordConsole(win.Console, e)
			trap := detect.NewConsoleTrap(win.Console, e)
			e.sched.Every(DetectorConsole, e.tuning.ConsoleInterval, trap.Check)
			return nil
		})
		e.arm(DetectorScriptTrap, func() error {
			return detect.ArmScriptTraps(win.Scripts, e)
		})
	}

	if policy.NetworkMonitoringEnabled {
		e.arm(DetectorNetwork, func() error {
			m := netmon.New(e.denylist, e)
			m.InstrumentClient(win.Fetch)
			m.InstrumentResty(win.XHR)
			e.mu.Lock()
			e.monitor = m
			e.mu.Unlock()
			return nil
		})
	}

	e.LogEvent(alert.EventInitialized, map[string]any{"detectors": e.Armed()})
	e.log.Info("advanced security initialized", zap.Strings("detectors", e.Armed()))
}

// Guard applies the base policy to win: input blocking when security is
// enabled, a short-lived "DEV MODE" badge when it is not.
func (e *Engine) Guard(win *page.Window, policy config.Policy) {
	if policy.SecurityEnabled {
		detect.GuardInput(win, policy, e)
		return
	}
	e.onClose(detect.ShowDevIndicator(win.Document, e.tuning.RootSelector,
		e.tuning.IndicatorDelay, e.tuning.IndicatorLifetime))
}

// arm runs one detector setup, isolating errors and panics.
func (e *Engine) arm(name string, setup func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return setup()
	}()

	if err != nil {
		e.log.Error("detector failed to arm", zap.String("detector", name), zap.Error(err))
		e.LogEvent(alert.EventDetectorFailed, map[string]string{
			"detector": name,
			"error":    err.Error(),
		})
		return
	}

	e.mu.Lock()
	e.armed = append(e.armed, name)
	e.mu.Unlock()
	e.log.Info("detector armed", zap.String("detector", name))
}

func (e *Engine) onClose(fn func()) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		fn()
		return
	}
	e.teardown = append(e.teardown, fn)
	e.mu.Unlock()
}

// showWarning places a full-page notice for one alert and removes it after
// the warning duration.
func (e *Engine) showWarning(kind alert.Kind, count int) {
	e.mu.Lock()
	doc := e.doc
	e.mu.Unlock()
	if doc == nil {
		return
	}

	now := e.now()
	fragment := fmt.Sprintf(`<div id="security-overlay-%d" data-security="warning" style="position: fixed; top: 0; left: 0; width: 100vw; height: 100vh; background: rgba(0, 0, 0, 0.95); z-index: 999999; display: flex; align-items: center; justify-content: center; color: #ff4757; font-family: monospace; font-size: 18px; text-align: center"><div><h2>SECURITY ALERT</h2><p>Alert Type: %s</p><p>Timestamp: %s</p><p>Alert #%d</p></div></div>`,
		now.UnixMilli(), html.EscapeString(string(kind)), now.UTC().Format(time.RFC3339), count)

	added, err := doc.AppendHTML("body", fragment)
	if err != nil {
		e.log.Debug("warning overlay not shown", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		for _, n := range added {
			doc.RemoveNode(n)
		}
		return
	}
	var t *time.Timer
	t = time.AfterFunc(e.tuning.WarningDuration, func() {
		for _, n := range added {
			doc.RemoveNode(n)
		}
		e.mu.Lock()
		delete(e.overlays, t)
		e.mu.Unlock()
	})
	e.overlays[t] = struct{}{}
}
