// Package detect holds the page detectors. Each detector observes one
// signal and reports through an alert.Sink; none of them touches engine
// state directly.
package detect

import (
	"sync"
	"time"

	"github.com/ppiankov/pagewarden/internal/page"
)

// Scheduler runs periodic detector tasks. Tasks can be paused and resumed
// as a group, which is how background pages stop probing.
type Scheduler struct {
	mu      sync.Mutex
	tasks   []*task
	paused  bool
	stopped bool
}

type task struct {
	name     string
	interval time.Duration
	fn       func()

	stop chan struct{}
	done chan struct{}
}

// NewScheduler creates an empty, running scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Every registers fn to run every interval. If the scheduler is paused the
// task starts on the next Resume. Calls after Stop are ignored.
func (s *Scheduler) Every(name string, interval time.Duration, fn func()) {
	if interval <= 0 {
		interval = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	t := &task{name: name, interval: interval, fn: fn}
	s.tasks = append(s.tasks, t)
	if !s.paused {
		t.start()
	}
}

// Pause clears every task's timer. A run already in progress finishes.
func (s *Scheduler) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.stopped {
		return
	}
	s.paused = true
	for _, t := range s.tasks {
		t.halt()
	}
}

// Resume restarts every task with a fresh timer.
func (s *Scheduler) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.stopped {
		return
	}
	s.paused = false
	for _, t := range s.tasks {
		t.start()
	}
}

// Paused reports whether tasks are currently suspended.
func (s *Scheduler) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Stop halts all tasks for good and waits for in-flight runs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	var waits []chan struct{}
	for _, t := range s.tasks {
		if t.stop != nil {
			waits = append(waits, t.done)
		}
		t.halt()
	}
	s.mu.Unlock()

	for _, done := range waits {
		<-done
	}
}

// Names returns the registered task names in registration order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.name
	}
	return names
}

// FollowVisibility pauses the scheduler while doc is hidden and resumes it
// when the page becomes visible again. The returned func detaches it.
func (s *Scheduler) FollowVisibility(doc *page.Document) func() {
	if doc.Hidden() {
		s.Pause()
	}
	return doc.OnVisibilityChange(func(hidden bool) {
		if hidden {
			s.Pause()
		} else {
			s.Resume()
		}
	})
}

func (t *task) start() {
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	go t.loop(t.stop, t.done)
}

func (t *task) halt() {
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *task) loop(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// A tick and a stop can race; stop wins.
			select {
			case <-stop:
				return
			default:
			}
			t.fn()
		}
	}
}
