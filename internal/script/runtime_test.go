package script

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/pagewarden/internal/logging"
	"github.com/ppiankov/pagewarden/internal/page"
)

const testPage = `<html><body><main id="content"></main>
<script>console.log("first")</script>
<script>throw new Error("broken")</script>
<script>console.log("third")</script>
</body></html>`

func newTestRuntime(t *testing.T, console *bytes.Buffer) (*Runtime, *page.Window) {
	t.Helper()
	doc, err := page.LoadString(testPage, "https://portfolio.example.com/")
	if err != nil {
		t.Fatal(err)
	}
	win := page.NewWindow(doc, logging.NewConsole(console, false))
	rt, err := New(win, Config{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("failed to create runtime: %v", err)
	}
	return rt, win
}

func TestExecute(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})

	tests := []struct {
		name    string
		script  string
		want    any
		wantErr bool
	}{
		{name: "simple return", script: "40 + 2", want: int64(42)},
		{name: "string operations", script: "'hello'.toUpperCase()", want: "HELLO"},
		{name: "undefined result", script: "var x = 1;", want: nil},
		{name: "require removed", script: "require('fs')", wantErr: true},
		{name: "syntax error", script: "function (", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rt.Execute(context.Background(), tt.script)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Execute() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Execute() = %v (%T), want %v", got, got, tt.want)
			}
		})
	}
}

func TestExecuteTimeout(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})
	rt.cfg.Timeout = 50 * time.Millisecond

	start := time.Now()
	if _, err := rt.Execute(context.Background(), "while (true) {}"); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took too long to interrupt")
	}

	// The runtime stays usable after an interrupt.
	if got, err := rt.Execute(context.Background(), "1"); err != nil || got != int64(1) {
		t.Errorf("expected runtime to recover, got %v %v", got, err)
	}
}

func TestRunInlineContinuesAfterFailure(t *testing.T) {
	var console bytes.Buffer
	rt, _ := newTestRuntime(t, &console)

	err := rt.RunInline(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken") {
		t.Errorf("expected error from failing script, got %v", err)
	}

	out := console.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "third") {
		t.Errorf("expected both healthy scripts to run, console:\n%s", out)
	}
}

func TestWrapCallsBeforeAndForwards(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})

	evals, ctors := 0, 0
	if err := rt.Wrap("eval", func() { evals++ }); err != nil {
		t.Fatalf("wrap eval: %v", err)
	}
	if err := rt.Wrap("Function", func() { ctors++ }); err != nil {
		t.Fatalf("wrap Function: %v", err)
	}

	got, err := rt.Execute(context.Background(), "eval('1 + 2')")
	if err != nil || got != int64(3) {
		t.Errorf("expected eval to forward, got %v %v", got, err)
	}
	got, err = rt.Execute(context.Background(), "Function('a', 'return a * 7')(6)")
	if err != nil || got != int64(42) {
		t.Errorf("expected Function to forward, got %v %v", got, err)
	}

	if evals != 1 || ctors != 1 {
		t.Errorf("expected one call each, got eval=%d Function=%d", evals, ctors)
	}
}

func TestWrapPropagatesExceptions(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})
	rt.Wrap("eval", func() {})

	got, err := rt.Execute(context.Background(), `
		var caught = "";
		try { eval("throw new Error('inner')"); } catch (e) { caught = e.message; }
		caught`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inner" {
		t.Errorf("expected script to catch the original exception, got %v", got)
	}
}

func TestWrapRejectsNonFunction(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})
	if err := rt.Wrap("document", func() {}); err == nil {
		t.Error("expected error wrapping a non-function global")
	}
}

func TestFetchAndRequestUseWindowClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Method+" "+r.URL.Path)
	}))
	defer srv.Close()

	rt, win := newTestRuntime(t, &bytes.Buffer{})

	var fetched []string
	win.Fetch.Transport = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		fetched = append(fetched, req.URL.Path)
		return http.DefaultTransport.RoundTrip(req)
	})

	got, err := rt.Execute(context.Background(), `fetch("`+srv.URL+`/projects").body`)
	if err != nil || got != "GET /projects" {
		t.Errorf("unexpected fetch result %v %v", got, err)
	}
	if len(fetched) != 1 {
		t.Errorf("expected fetch to go through the window client, got %v", fetched)
	}

	got, err = rt.Execute(context.Background(), `request("post", "`+srv.URL+`/subscribe").body`)
	if err != nil || got != "POST /subscribe" {
		t.Errorf("unexpected request result %v %v", got, err)
	}
}

func TestDocumentBindings(t *testing.T) {
	rt, win := newTestRuntime(t, &bytes.Buffer{})

	got, err := rt.Execute(context.Background(), `document.append("#content", "<p>one</p><p>two</p>")`)
	if err != nil || got != int64(2) {
		t.Fatalf("expected 2 appended elements, got %v %v", got, err)
	}
	if win.Document.Count("#content p") != 2 {
		t.Error("expected paragraphs in document")
	}

	got, err = rt.Execute(context.Background(), `document.location`)
	if err != nil || got != "https://portfolio.example.com/" {
		t.Errorf("unexpected location %v %v", got, err)
	}

	if _, err := rt.Execute(context.Background(), `document.append("#missing", "<p></p>")`); err == nil {
		t.Error("expected error for unmatched selector")
	}
}

func TestNewRegistersScriptHost(t *testing.T) {
	rt, win := newTestRuntime(t, &bytes.Buffer{})
	if win.Scripts != page.ScriptHost(rt) {
		t.Error("expected runtime to register as the window script host")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func TestYieldReturnsWithoutDebugger(t *testing.T) {
	rt, _ := newTestRuntime(t, &bytes.Buffer{})
	if d := rt.Yield(); d > time.Second {
		t.Errorf("expected yield to return promptly, took %v", d)
	}
}

func TestYieldExcludesWaitForRunningScript(t *testing.T) {
	rt, win := newTestRuntime(t, &bytes.Buffer{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		rt.Execute(context.Background(),
			`document.append("body", "<p id=\"busy\"></p>"); var s = Date.now(); while (Date.now() - s < 300) {}`)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for win.Document.Count("#busy") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("busy script did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	start := time.Now()
	d := rt.Yield()
	if waited := time.Since(start); waited < 100*time.Millisecond {
		t.Fatalf("expected yield to wait for the running script, waited %v", waited)
	}
	if d > 100*time.Millisecond {
		t.Errorf("expected measured yield to exclude the wait, got %v", d)
	}
	<-done
}
