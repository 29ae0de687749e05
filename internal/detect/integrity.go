package detect

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/page"
)

// IntegrityObserver watches document mutations. Any added script element
// carrying a src, at any depth of the added subtree, is an injection. After
// a reload, inline scripts whose content no longer matches the baseline
// are a modification.
type IntegrityObserver struct {
	doc    *page.Document
	raiser alert.Raiser

	mu       sync.Mutex
	baseline map[string]int
	cancel   func()
}

// WatchIntegrity records the current inline scripts as the baseline and
// starts observing doc.
func WatchIntegrity(doc *page.Document, r alert.Raiser) *IntegrityObserver {
	o := &IntegrityObserver{
		doc:      doc,
		raiser:   r,
		baseline: checksums(doc.InlineScripts()),
	}
	o.cancel = doc.Observe(o.handle)
	return o
}

// Stop detaches the observer.
func (o *IntegrityObserver) Stop() {
	o.cancel()
}

func (o *IntegrityObserver) handle(rec page.MutationRecord) {
	for _, n := range rec.Added {
		page.Walk(n, func(c *html.Node) {
			if !page.IsElement(c, "script") {
				return
			}
			if src, ok := page.Attr(c, "src"); ok && strings.TrimSpace(src) != "" {
				o.raiser.RaiseAlert(alert.KindScriptInjection)
			}
		})
	}

	if rec.Source == page.SourceReload {
		o.verify()
	}
}

// verify compares inline scripts against the baseline, then adopts the
// current set so each change alerts once.
func (o *IntegrityObserver) verify() {
	current := checksums(o.doc.InlineScripts())

	o.mu.Lock()
	remaining := make(map[string]int, len(o.baseline))
	for sum, n := range o.baseline {
		remaining[sum] = n
	}
	changed := 0
	for sum, n := range current {
		for ; n > 0; n-- {
			if remaining[sum] > 0 {
				remaining[sum]--
				continue
			}
			changed++
		}
	}
	o.baseline = current
	o.mu.Unlock()

	for ; changed > 0; changed-- {
		o.raiser.RaiseAlert(alert.KindScriptModification)
	}
}

func checksums(scripts []string) map[string]int {
	out := make(map[string]int, len(scripts))
	for _, s := range scripts {
		sum := sha256.Sum256([]byte(s))
		out[hex.EncodeToString(sum[:])]++
	}
	return out
}
