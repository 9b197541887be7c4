// Package navigation moves the client between named destinations and
// schedules deferred, cancellable moves.
package navigation

import (
	"sync"
	"time"
)

// Navigator switches the client to a named destination such as "/dashboard".
type Navigator interface {
	Navigate(destination string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(destination string)

// Navigate calls f(destination)
func (f NavigatorFunc) Navigate(destination string) {
	f(destination)
}

type taskState int

const (
	taskPending taskState = iota
	taskFired
	taskCancelled
)

// Task is a deferred action that can be cancelled until it starts running.
type Task struct {
	mu    sync.Mutex
	state taskState
	timer *time.Timer
	done  chan struct{}
}

// After runs fn once d has elapsed unless the task is cancelled first.
func After(d time.Duration, fn func()) *Task {
	t := &Task{done: make(chan struct{})}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		if t.state != taskPending {
			t.mu.Unlock()
			return
		}
		t.state = taskFired
		t.mu.Unlock()

		defer close(t.done)
		fn()
	})
	return t
}

// Schedule navigates to destination after d
func Schedule(d time.Duration, nav Navigator, destination string) *Task {
	return After(d, func() { nav.Navigate(destination) })
}

// Cancel stops the task. It reports whether the action was prevented;
// false means it already ran, is running, or was cancelled before.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != taskPending {
		return false
	}
	t.state = taskCancelled
	t.timer.Stop()
	close(t.done)
	return true
}

// Done is closed once the action has completed or the task was cancelled.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Fired reports whether the action started
func (t *Task) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == taskFired
}

// Cancelled reports whether Cancel prevented the action
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == taskCancelled
}
