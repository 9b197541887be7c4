package testutil

import (
	"sync"
	"time"
)

// RecordingNavigator captures navigation in memory for tests.
type RecordingNavigator struct {
	mu    sync.Mutex
	dests []string
	ch    chan string
}

func NewRecordingNavigator() *RecordingNavigator {
	return &RecordingNavigator{ch: make(chan string, 16)}
}

// Navigate implements navigation.Navigator
func (r *RecordingNavigator) Navigate(destination string) {
	r.mu.Lock()
	r.dests = append(r.dests, destination)
	r.mu.Unlock()

	select {
	case r.ch <- destination:
	default:
	}
}

// Destinations returns every destination visited so far
func (r *RecordingNavigator) Destinations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dests...)
}

// WaitFor blocks until destination is visited or timeout elapses
func (r *RecordingNavigator) WaitFor(destination string, timeout time.Duration) bool {
	for _, d := range r.Destinations() {
		if d == destination {
			return true
		}
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case d := <-r.ch:
			if d == destination {
				return true
			}
		case <-deadline.C:
			return false
		}
	}
}
