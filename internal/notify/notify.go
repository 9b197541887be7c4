// Package notify implements the transient, auto-dismissing notification
// shown by client views.
package notify

import (
	"sync"
	"time"

	"github.com/cafoot/client/internal/state"
)

// Severity of a notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultTTL is how long a notification stays visible unless closed
const DefaultTTL = 6000 * time.Millisecond

// Notification is the single user-facing message of a view
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Visible  bool     `json:"visible"`
}

// Notifier owns the visible notification and its dismiss timer.
// Showing a new notification replaces the current one and restarts the timer.
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	timer   *time.Timer
	gen     uint64
	stopped bool
	slot    *state.Slot[Notification]
}

// New creates a Notifier; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, slot: state.NewSlot[Notification]()}
}

// Success shows a success notification
func (n *Notifier) Success(message string) {
	n.Show(SeveritySuccess, message)
}

// Error shows an error notification
func (n *Notifier) Error(message string) {
	n.Show(SeverityError, message)
}

// Show makes a notification visible and schedules its dismissal.
func (n *Notifier) Show(severity Severity, message string) {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.gen++
	gen := n.gen
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()

	n.slot.Set(Notification{Message: message, Severity: severity, Visible: true})

	n.mu.Lock()
	defer n.mu.Unlock()
	if gen == n.gen && !n.stopped {
		n.timer = time.AfterFunc(n.ttl, func() { n.dismiss(gen) })
	}
}

// Close hides the current notification immediately
func (n *Notifier) Close() {
	n.mu.Lock()
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()

	n.hide()
}

// Stop cancels the dismiss timer and ignores later Show calls. The last
// notification keeps its visibility.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopped = true
	n.gen++
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

// Current returns the latest notification (Visible false once dismissed)
func (n *Notifier) Current() Notification {
	v, _ := n.slot.Get()
	return v
}

// Subscribe registers fn for every change, including dismissals
func (n *Notifier) Subscribe(fn func(Notification)) (unsubscribe func()) {
	return n.slot.Subscribe(fn)
}

func (n *Notifier) dismiss(gen uint64) {
	n.mu.Lock()
	if gen != n.gen {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.mu.Unlock()

	n.hide()
}

func (n *Notifier) hide() {
	cur, ok := n.slot.Get()
	if !ok || !cur.Visible {
		return
	}
	cur.Visible = false
	n.slot.Set(cur)
}
