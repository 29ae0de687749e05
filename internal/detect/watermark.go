package detect

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/pagewarden/internal/page"
)

// WatermarkAttr marks overlay nodes placed by Watermarks.
const WatermarkAttr = `data-security="watermark"`

var watermarkPositions = []string{
	"top: 10px; right: 10px",
	"bottom: 10px; left: 10px",
	"top: 50%; left: 50%; transform: translate(-50%, -50%)",
	"top: 10px; left: 50%; transform: translateX(-50%)",
}

// WatermarkOptions bounds the placement cadence.
type WatermarkOptions struct {
	Text     string
	Selector string // container the overlays are appended to
	MinEvery time.Duration
	MaxEvery time.Duration
	MinLife  time.Duration
	MaxLife  time.Duration
	Max      int // live overlays at once
}

// Watermarks places short-lived text overlays on the page. It is cosmetic
// and never raises alerts.
type Watermarks struct {
	doc  *page.Document
	opts WatermarkOptions
	rnd  func(n int64) int64

	beforeAppend func() // test hook

	mu      sync.Mutex
	live    map[*html.Node]*time.Timer
	stopped bool
}

// NewWatermarks creates a watermark system for doc.
func NewWatermarks(doc *page.Document, opts WatermarkOptions) *Watermarks {
	if opts.Selector == "" {
		opts.Selector = "body"
	}
	if opts.Max <= 0 {
		opts.Max = 3
	}
	return &Watermarks{
		doc:  doc,
		opts: opts,
		rnd:  rand.Int64N,
		live: make(map[*html.Node]*time.Timer),
	}
}

// Interval picks the placement period, once per system.
func (w *Watermarks) Interval() time.Duration {
	return w.between(w.opts.MinEvery, w.opts.MaxEvery)
}

// Place appends one overlay unless the live limit is reached.
func (w *Watermarks) Place() bool {
	w.mu.Lock()
	if w.stopped || len(w.live) >= w.opts.Max {
		w.mu.Unlock()
		return false
	}
	w.mu.Unlock()

	if w.beforeAppend != nil {
		w.beforeAppend()
	}
	pos := watermarkPositions[w.rnd(int64(len(watermarkPositions)))]
	fragment := fmt.Sprintf(`<div %s style="position: fixed; z-index: 999999; color: rgba(255,255,255,0.1); font-size: 12px; font-family: monospace; pointer-events: none; user-select: none; %s">%s</div>`,
		WatermarkAttr, pos, html.EscapeString(w.opts.Text))

	added, err := w.doc.AppendHTML(w.opts.Selector, fragment)
	if err != nil || len(added) == 0 {
		return false
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		for _, n := range added {
			w.doc.RemoveNode(n)
		}
		return false
	}
	defer w.mu.Unlock()
	for _, n := range added {
		w.live[n] = time.AfterFunc(w.between(w.opts.MinLife, w.opts.MaxLife), func() {
			w.expire(n)
		})
	}
	return true
}

// Live returns the number of overlays currently on the page.
func (w *Watermarks) Live() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.live)
}

// Stop removes every live overlay and refuses further placements.
func (w *Watermarks) Stop() {
	w.mu.Lock()
	w.stopped = true
	live := w.live
	w.live = make(map[*html.Node]*time.Timer)
	w.mu.Unlock()

	for n, t := range live {
		t.Stop()
		w.doc.RemoveNode(n)
	}
}

func (w *Watermarks) expire(n *html.Node) {
	w.mu.Lock()
	_, ok := w.live[n]
	delete(w.live, n)
	w.mu.Unlock()
	if ok {
		w.doc.RemoveNode(n)
	}
}

func (w *Watermarks) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(w.rnd(int64(hi-lo)))
}
