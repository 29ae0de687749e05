// Package page models the host page a session runs in: an HTML document
// held in memory, its visibility and location, and the window-level
// collaborators (outbound clients, console, script host) that detectors hook.
package page

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Mutation sources.
const (
	SourceAppend = "append"
	SourceReload = "reload"
)

// MutationRecord describes element nodes added to the document.
type MutationRecord struct {
	Target string
	Added  []*html.Node
	Source string
}

// Document is an in-memory HTML document. All methods are safe for
// concurrent use; observers and listeners run on the caller's goroutine
// after the document lock is released.
type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	location  string
	hidden    bool
	nextID    int
	observers map[int]func(MutationRecord)
	listeners map[int]func(hidden bool)

	unloadOnce sync.Once
	unloaded   chan struct{}
}

// Load parses an HTML document served from location.
func Load(r io.Reader, location string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &Document{
		doc:       doc,
		location:  location,
		observers: make(map[int]func(MutationRecord)),
		listeners: make(map[int]func(bool)),
		unloaded:  make(chan struct{}),
	}, nil
}

// LoadString parses an HTML string.
func LoadString(src, location string) (*Document, error) {
	return Load(strings.NewReader(src), location)
}

// LoadFile parses an HTML file. An empty location becomes a file: URL.
func LoadFile(path, location string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	if location == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		location = "file://" + filepath.ToSlash(abs)
	}
	return Load(f, location)
}

// Location returns the current page location.
func (d *Document) Location() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.location
}

// Navigate moves the browsing context to url. The first navigation unloads the page.
func (d *Document) Navigate(url string) {
	d.mu.Lock()
	d.location = url
	d.mu.Unlock()
	d.unloadOnce.Do(func() { close(d.unloaded) })
}

// Unloaded is closed when the page navigates away.
func (d *Document) Unloaded() <-chan struct{} {
	return d.unloaded
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Html()
}

// Count returns the number of elements matching selector.
func (d *Document) Count(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Length()
}

// Text returns the combined text of elements matching selector.
func (d *Document) Text(selector string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Text()
}

// SetStyle sets one inline style property on every element matching selector.
func (d *Document) SetStyle(selector, property, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		style, _ := s.Attr("style")
		s.SetAttr("style", setDeclaration(style, property, value))
	})
}

// Style returns an inline style property of the first element matching selector.
func (d *Document) Style(selector, property string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	style, _ := d.doc.Find(selector).First().Attr("style")
	for _, decl := range parseDeclarations(style) {
		if decl[0] == property {
			return decl[1]
		}
	}
	return ""
}

// AppendHTML parses fragment and appends it to every element matching selector.
// Observers receive one record with the added element nodes.
func (d *Document) AppendHTML(selector, fragment string) ([]*html.Node, error) {
	d.mu.Lock()
	sel := d.doc.Find(selector)
	if sel.Length() == 0 {
		d.mu.Unlock()
		return nil, fmt.Errorf("no element matches %q", selector)
	}

	var added []*html.Node
	sel.Each(func(_ int, s *goquery.Selection) {
		parent := s.Get(0)
		last := parent.LastChild
		s.AppendHtml(fragment)

		start := parent.FirstChild
		if last != nil {
			start = last.NextSibling
		}
		for n := start; n != nil; n = n.NextSibling {
			if n.Type == html.ElementNode {
				added = append(added, n)
			}
		}
	})
	d.mu.Unlock()

	d.notify(MutationRecord{Target: selector, Added: added, Source: SourceAppend})
	return added, nil
}

// RemoveNode detaches n from the document. It reports false if n was already detached.
func (d *Document) RemoveNode(n *html.Node) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n == nil || n.Parent == nil {
		return false
	}
	n.Parent.RemoveChild(n)
	return true
}

// InlineScripts returns the text of every script element without a src attribute.
func (d *Document) InlineScripts() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, ok := s.Attr("src"); ok {
			return
		}
		out = append(out, s.Text())
	})
	return out
}

// Reload replaces the document contents. Script elements that were not
// present before are reported to observers as one reload record.
func (d *Document) Reload(r io.Reader) error {
	next, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}

	d.mu.Lock()
	seen := make(map[string]int)
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		seen[scriptKey(s)]++
	})

	var added []*html.Node
	next.Find("script").Each(func(_ int, s *goquery.Selection) {
		key := scriptKey(s)
		if seen[key] > 0 {
			seen[key]--
			return
		}
		added = append(added, s.Get(0))
	})
	d.doc = next
	d.mu.Unlock()

	d.notify(MutationRecord{Target: "document", Added: added, Source: SourceReload})
	return nil
}

// Observe registers fn for every mutation. The returned func unregisters it.
func (d *Document) Observe(fn func(MutationRecord)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.observers[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.observers, id)
	}
}

// Hidden reports whether the page is currently hidden.
func (d *Document) Hidden() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.hidden
}

// SetHidden changes page visibility and notifies listeners on a change.
func (d *Document) SetHidden(hidden bool) {
	d.mu.Lock()
	if d.hidden == hidden {
		d.mu.Unlock()
		return
	}
	d.hidden = hidden
	fns := make([]func(bool), 0, len(d.listeners))
	for _, fn := range d.listeners {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(hidden)
	}
}

// OnVisibilityChange registers fn for visibility changes. The returned func unregisters it.
func (d *Document) OnVisibilityChange(fn func(hidden bool)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

func (d *Document) notify(rec MutationRecord) {
	if len(rec.Added) == 0 {
		return
	}
	d.mu.Lock()
	fns := make([]func(MutationRecord), 0, len(d.observers))
	for _, fn := range d.observers {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(rec)
	}
}

func scriptKey(s *goquery.Selection) string {
	if src, ok := s.Attr("src"); ok {
		return "src:" + src
	}
	return "inline:" + s.Text()
}
