// Package netmon watches the page's outbound requests and raises an alert
// for every request whose URL matches the denylist. Requests are forwarded
// unchanged; matching never blocks or rewrites them.
package netmon

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ppiankov/pagewarden/internal/alert"
	"github.com/ppiankov/pagewarden/internal/denylist"
)

// Request kinds.
const (
	KindFetch = "fetch"
	KindXHR   = "xhr"
)

// requestLogCapacity bounds the request log.
const requestLogCapacity = 100

// Request is one observed outbound request.
type Request struct {
	Kind       string
	URL        string
	Timestamp  time.Time
	Suspicious bool
}

// Monitor matches outbound requests against a denylist.
type Monitor struct {
	dl     *denylist.Denylist
	raiser alert.Raiser

	mu       sync.Mutex
	requests *alert.Ring[Request]
	seen     int
}

// New creates a Monitor. A nil denylist uses the defaults.
func New(dl *denylist.Denylist, raiser alert.Raiser) *Monitor {
	if dl == nil {
		dl = denylist.NewDefault()
	}
	return &Monitor{
		dl:       dl,
		raiser:   raiser,
		requests: alert.NewRing[Request](requestLogCapacity),
	}
}

// Observe records a request and raises one alert if its URL is suspicious.
// There is no rate limiting: every matching request raises.
func (m *Monitor) Observe(kind, url string) bool {
	suspicious, _ := m.dl.IsSuspicious(url)

	m.mu.Lock()
	m.requests.Push(Request{Kind: kind, URL: url, Timestamp: time.Now(), Suspicious: suspicious})
	m.seen++
	m.mu.Unlock()

	if suspicious && m.raiser != nil {
		m.raiser.RaiseAlert(alert.KindSuspiciousNetwork)
	}
	return suspicious
}

// Requests returns the most recent requests, oldest first.
func (m *Monitor) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests.Snapshot()
}

// Seen returns the number of requests observed in total.
func (m *Monitor) Seen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen
}

// Wrap returns a RoundTripper that observes every request before handing it to base.
// A nil base uses http.DefaultTransport.
func (m *Monitor) Wrap(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, m: m}
}

// InstrumentClient wraps the client's transport in place.
func (m *Monitor) InstrumentClient(c *http.Client) {
	c.Transport = m.Wrap(c.Transport)
}

// InstrumentResty observes every request the resty client executes.
func (m *Monitor) InstrumentResty(c *resty.Client) {
	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		m.Observe(KindXHR, r.URL)
		return nil
	})
}

type transport struct {
	base http.RoundTripper
	m    *Monitor
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.m.Observe(KindFetch, req.URL.String())
	return t.base.RoundTrip(req)
}
