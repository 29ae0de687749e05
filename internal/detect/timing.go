package detect

import (
	"time"

	"github.com/ppiankov/pagewarden/internal/alert"
)

// Yielder is a point where an attached debugger would stop execution. Yield
// reports the time spent inside the yield point itself, excluding any wait
// for the host to become idle.
type Yielder interface {
	Yield() time.Duration
}

// YieldFunc adapts a plain function to Yielder.
type YieldFunc func() time.Duration

// Yield calls f.
func (f YieldFunc) Yield() time.Duration { return f() }

// TimingProbe measures wall-clock time spent in a yield point. A delta above
// the threshold is taken as paused or stepped execution. GC pauses and a
// starved host also trip it; that noise is accepted.
type TimingProbe struct {
	raiser    alert.Raiser
	yield     Yielder
	threshold time.Duration
}

// NewTimingProbe creates a probe. A nil yield measures an empty section.
func NewTimingProbe(r alert.Raiser, yield Yielder, threshold time.Duration) *TimingProbe {
	if yield == nil {
		yield = YieldFunc(func() time.Duration { return 0 })
	}
	return &TimingProbe{
		raiser:    r,
		yield:     yield,
		threshold: threshold,
	}
}

// Check runs one measurement and reports whether it raised an alert.
func (p *TimingProbe) Check() bool {
	if p.yield.Yield() > p.threshold {
		p.raiser.RaiseAlert(alert.KindDebuggerTiming)
		return true
	}
	return false
}
