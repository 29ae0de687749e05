// Package script hosts the page's inline scripts in a goja runtime. The
// runtime exposes a small browser-like global surface (console, fetch,
// request, document) backed by the page Window, and lets detectors wrap
// global functions such as eval and Function.
package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ppiankov/pagewarden/internal/page"
)

// maxBodyBytes bounds response bodies handed to scripts.
const maxBodyBytes = 1 << 20

// Config defines runtime configuration.
type Config struct {
	Timeout time.Duration // per-script execution timeout
}

// DefaultConfig returns the default runtime configuration.
func DefaultConfig() Config {
	return Config{Timeout: 5 * time.Second}
}

// Runtime is a goja VM bound to one page Window.
type Runtime struct {
	vm  *goja.Runtime
	win *page.Window
	cfg Config

	mu  sync.Mutex
	ctx context.Context
}

// New creates a runtime bound to win and registers it as the window's script host.
func New(win *page.Window, cfg Config) (*Runtime, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}

	r := &Runtime{
		vm:  goja.New(),
		win: win,
		cfg: cfg,
		ctx: context.Background(),
	}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	win.Scripts = r
	return r, nil
}

// Execute runs src with the configured timeout and returns its exported completion value.
func (r *Runtime) Execute(ctx context.Context, src string) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx, src)
}

// run executes src. The caller holds r.mu.
func (r *Runtime) run(ctx context.Context, src string) (any, error) {
	r.ctx = ctx
	defer func() { r.ctx = context.Background() }()

	timer := time.NewTimer(r.cfg.Timeout)
	defer timer.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-timer.C:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	val, err := r.vm.RunString(src)
	r.vm.ClearInterrupt()
	if err != nil {
		return nil, err
	}
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return val.Export(), nil
}

// RunInline executes every inline script of the window's document, in
// document order. A failing script does not stop the ones after it.
func (r *Runtime) RunInline(ctx context.Context) error {
	var errs []error
	for i, src := range r.win.Document.InlineScripts() {
		if strings.TrimSpace(src) == "" {
			continue
		}
		if _, err := r.Execute(ctx, src); err != nil {
			errs = append(errs, fmt.Errorf("inline script %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Wrap replaces the global function named global with one that calls before
// and then forwards to the original with the same this and arguments.
// The wrapper is callable but not constructible.
func (r *Runtime) Wrap(global string, before func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orig, ok := goja.AssertFunction(r.vm.Get(global))
	if !ok {
		return fmt.Errorf("global %q is not a function", global)
	}
	return r.vm.Set(global, func(call goja.FunctionCall) goja.Value {
		before()
		v, err := orig(call.This, call.Arguments...)
		if err != nil {
			r.throw(err)
		}
		return v
	})
}

// throw rethrows err inside the VM.
func (r *Runtime) throw(err error) {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		panic(ex)
	}
	panic(r.vm.NewGoError(err))
}

// setupGlobals configures the global surface scripts see.
func (r *Runtime) setupGlobals() error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := r.vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	console := r.vm.NewObject()
	console.Set("log", r.consoleFunc(zap.InfoLevel))
	console.Set("info", r.consoleFunc(zap.InfoLevel))
	console.Set("debug", r.consoleFunc(zap.DebugLevel))
	console.Set("warn", r.consoleFunc(zap.WarnLevel))
	console.Set("error", r.consoleFunc(zap.ErrorLevel))
	if err := r.vm.Set("console", console); err != nil {
		return err
	}

	if err := r.vm.Set("fetch", r.fetch); err != nil {
		return err
	}
	if err := r.vm.Set("request", r.request); err != nil {
		return err
	}

	document := r.vm.NewObject()
	document.Set("append", r.appendHTML)
	document.Set("text", func(selector string) string {
		return r.win.Document.Text(selector)
	})
	if err := document.DefineAccessorProperty("location",
		r.vm.ToValue(func() string { return r.win.Document.Location() }),
		nil, goja.FLAG_FALSE, goja.FLAG_TRUE); err != nil {
		return err
	}
	return r.vm.Set("document", document)
}

func (r *Runtime) consoleFunc(level zapcore.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		if ce := r.win.Console.Check(level, strings.Join(parts, " ")); ce != nil {
			ce.Write(zap.String("source", "script"))
		}
		return goja.Undefined()
	}
}

// fetch(url) performs a synchronous GET through the window's fetch-style
// client and returns {status, body}.
func (r *Runtime) fetch(call goja.FunctionCall) goja.Value {
	url := call.Argument(0).String()

	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, url, nil)
	if err != nil {
		r.throw(err)
	}
	resp, err := r.win.Fetch.Do(req)
	if err != nil {
		r.throw(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		r.throw(err)
	}
	return r.vm.ToValue(map[string]any{
		"status": resp.StatusCode,
		"body":   string(body),
	})
}

// request(method, url) performs a synchronous request through the window's
// XHR-style client and returns {status, body}.
func (r *Runtime) request(call goja.FunctionCall) goja.Value {
	method := strings.ToUpper(call.Argument(0).String())
	url := call.Argument(1).String()

	resp, err := r.win.XHR.R().SetContext(r.ctx).Execute(method, url)
	if err != nil {
		r.throw(err)
	}
	body := resp.Body()
	if len(body) > maxBodyBytes {
		body = body[:maxBodyBytes]
	}
	return r.vm.ToValue(map[string]any{
		"status": resp.StatusCode(),
		"body":   string(body),
	})
}

// document.append(selector, html) appends markup and returns the number of elements added.
func (r *Runtime) appendHTML(selector, fragment string) int {
	added, err := r.win.Document.AppendHTML(selector, fragment)
	if err != nil {
		r.throw(err)
	}
	return len(added)
}

// Yield runs a debugger statement and returns how long the statement took.
// Time spent waiting for a running script to finish is not counted.
func (r *Runtime) Yield() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	r.run(context.Background(), "debugger")
	return time.Since(start)
}
