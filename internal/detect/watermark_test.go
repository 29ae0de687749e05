package detect

import (
	"testing"
	"time"
)

const watermarkSelector = `[data-security="watermark"]`

func newTestWatermarks(t *testing.T, life time.Duration) (*Watermarks, func() int) {
	t.Helper()
	doc := newTestDocument(t, "<html><body><main></main></body></html>")
	w := NewWatermarks(doc, WatermarkOptions{
		Text:     "© Jane <Doe>",
		MinEvery: 5 * time.Second,
		MaxEvery: 15 * time.Second,
		MinLife:  life,
		MaxLife:  life,
		Max:      3,
	})
	w.rnd = func(n int64) int64 { return 0 }
	return w, func() int { return doc.Count(watermarkSelector) }
}

func TestWatermarksRespectLiveLimit(t *testing.T) {
	w, onPage := newTestWatermarks(t, time.Hour)
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if !w.Place() {
			t.Fatalf("expected placement %d to succeed", i+1)
		}
	}
	if w.Place() {
		t.Error("expected fourth placement to be refused")
	}
	if w.Live() != 3 || onPage() != 3 {
		t.Errorf("expected 3 live watermarks, got live=%d page=%d", w.Live(), onPage())
	}
}

func TestWatermarksExpire(t *testing.T) {
	w, onPage := newTestWatermarks(t, 10*time.Millisecond)
	defer w.Stop()

	w.Place()
	waitFor(t, "watermark removal", func() bool { return onPage() == 0 && w.Live() == 0 })

	if !w.Place() {
		t.Error("expected placement after expiry to succeed")
	}
}

func TestWatermarksStopRemovesOverlays(t *testing.T) {
	w, onPage := newTestWatermarks(t, time.Hour)
	w.Place()
	w.Place()

	w.Stop()
	if onPage() != 0 {
		t.Errorf("expected overlays removed, %d remain", onPage())
	}
	if w.Place() {
		t.Error("expected stopped system to refuse placements")
	}
}

func TestWatermarkMarkupEscapesText(t *testing.T) {
	doc := newTestDocument(t, "<html><body></body></html>")
	w := NewWatermarks(doc, WatermarkOptions{Text: "<b>© Jane</b>", MinLife: time.Hour, MaxLife: time.Hour})
	defer w.Stop()

	w.Place()
	if doc.Count("body b") != 0 {
		t.Error("expected watermark text to be escaped")
	}
	if got := doc.Text(watermarkSelector); got != "<b>© Jane</b>" {
		t.Errorf("unexpected watermark text %q", got)
	}
	if style := doc.Style(watermarkSelector, "position"); style != "fixed" {
		t.Errorf("expected fixed position, got %q", style)
	}
}

func TestWatermarkIntervalWithinBounds(t *testing.T) {
	doc := newTestDocument(t, "<html><body></body></html>")
	w := NewWatermarks(doc, WatermarkOptions{MinEvery: 5 * time.Second, MaxEvery: 15 * time.Second})

	for i := 0; i < 50; i++ {
		d := w.Interval()
		if d < 5*time.Second || d >= 15*time.Second {
			t.Fatalf("interval %s out of bounds", d)
		}
	}

	w.opts.MaxEvery = w.opts.MinEvery
	if d := w.Interval(); d != 5*time.Second {
		t.Errorf("expected degenerate bounds to return the minimum, got %s", d)
	}
}

func TestWatermarksStopDuringPlacement(t *testing.T) {
	w, onPage := newTestWatermarks(t, time.Hour)
	w.beforeAppend = w.Stop

	if w.Place() {
		t.Error("expected placement racing Stop to be refused")
	}
	if onPage() != 0 || w.Live() != 0 {
		t.Errorf("expected no overlays after stop, got page=%d live=%d", onPage(), w.Live())
	}
}
