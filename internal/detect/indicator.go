package detect

import (
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/pagewarden/internal/page"
)

const indicatorHTML = `<div data-security="indicator" style="position: fixed; top: 10px; right: 10px; background: rgba(255, 193, 7, 0.9); color: black; padding: 5px 10px; border-radius: 5px; font-family: monospace; font-size: 12px; z-index: 999999; pointer-events: none">DEV MODE</div>`

// ShowDevIndicator places a "DEV MODE" badge on the page after delay and
// removes it after lifetime. The returned func cancels both steps and
// removes the badge if it is showing.
func ShowDevIndicator(doc *page.Document, selector string, delay, lifetime time.Duration) func() {
	var (
		mu       sync.Mutex
		shown    []*html.Node
		removal  *time.Timer
		canceled bool
	)

	remove := func() {
		mu.Lock()
		nodes := shown
		shown = nil
		mu.Unlock()
		for _, n := range nodes {
			doc.RemoveNode(n)
		}
	}

	show := time.AfterFunc(delay, func() {
		mu.Lock()
		if canceled {
			mu.Unlock()
			return
		}
		mu.Unlock()

		added, err := doc.AppendHTML(selector, indicatorHTML)
		if err != nil {
			return
		}

		mu.Lock()
		shown = added
		if canceled {
			mu.Unlock()
			remove()
			return
		}
		removal = time.AfterFunc(lifetime, remove)
		mu.Unlock()
	})

	return func() {
		show.Stop()
		mu.Lock()
		canceled = true
		if removal != nil {
			removal.Stop()
		}
		mu.Unlock()
		remove()
	}
}
