// Package register drives the account registration form: it validates the
// draft, submits it once to the Account Service and reacts to the outcome.
package register

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/cafoot/client/accounts"
	"github.com/cafoot/client/internal/navigation"
	"github.com/cafoot/client/internal/pkg/log"
	"github.com/cafoot/client/internal/state"
	"github.com/cafoot/client/internal/storage"
	"github.com/cafoot/client/internal/types"
)

var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrSubmissionInFlight = errors.New("registration already in progress")
	ErrTokenNotPersisted  = errors.New("session token could not be stored")
	ErrClosed             = errors.New("registration form closed")
)

// Notifier shows the form's single transient message. The Controller calls
// it with its lock held, so implementations must not call back into it.
type Notifier interface {
	Success(message string)
	Error(message string)
	Close()
}

// Dependencies are the collaborators a Controller needs. All are required.
type Dependencies struct {
	Registrar accounts.Registrar
	Identity  *state.Slot[accounts.User]
	Store     storage.Store
	Notifier  Notifier
	Navigator navigation.Navigator
}

func (d Dependencies) validate() error {
	switch {
	case d.Registrar == nil:
		return errors.New("register: registrar is required")
	case d.Identity == nil:
		return errors.New("register: identity state is required")
	case d.Store == nil:
		return errors.New("register: token store is required")
	case d.Notifier == nil:
		return errors.New("register: notifier is required")
	case d.Navigator == nil:
		return errors.New("register: navigator is required")
	}
	return nil
}

// Option configures a Controller
type Option func(*Controller)

// WithRedirectDelay sets the wait between success and the dashboard move.
func WithRedirectDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.redirectDelay = d
		}
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// Controller is the registration form. It is safe for concurrent use; at most
// one submission is in flight at a time.
type Controller struct {
	deps          Dependencies
	redirectDelay time.Duration
	now           func() time.Time

	mu           sync.Mutex
	draft        Draft
	showPassword bool
	state        SubmissionState
	lastOutcome  SubmissionState
	redirect     *navigation.Task
	closed       bool
}

// NewController wires a form to its collaborators
func NewController(deps Dependencies, opts ...Option) (*Controller, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		deps:          deps,
		redirectDelay: DefaultRedirectDelay,
		now:           time.Now,
		state:         Idle,
		lastOutcome:   Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Draft returns the current form values
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetDraft replaces the form values
func (c *Controller) SetDraft(d Draft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = d
}

// UpdateDraft edits the form values in place
func (c *Controller) UpdateDraft(fn func(*Draft)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft)
}

// TogglePasswordVisibility flips whether password fields are shown in clear
// text and returns the new setting. It never touches the values.
func (c *Controller) TogglePasswordVisibility() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showPassword = !c.showPassword
	return c.showPassword
}

// PasswordVisible reports the password visibility toggle
func (c *Controller) PasswordVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showPassword
}

// PasswordStrength estimates the draft password for display
func (c *Controller) PasswordStrength() Strength {
	d := c.Draft()
	return EstimateStrength(d.Password, d.FullName, d.Email)
}

// State is Submitting while a request is in flight and Idle otherwise.
func (c *Controller) State() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submitting reports whether the submit control should be disabled
func (c *Controller) Submitting() bool {
	return c.State() == Submitting
}

// LastOutcome is Succeeded or Failed for the most recent submission that
// reached the Account Service, Idle before that.
func (c *Controller) LastOutcome() SubmissionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOutcome
}

// SubmitDraft submits the current form values
func (c *Controller) SubmitDraft(ctx context.Context) error {
	return c.Submit(ctx, c.Draft())
}

// Submit validates d and registers it with the Account Service.
//
// Mismatched passwords are reported without contacting the service. A call
// made while another is in flight returns ErrSubmissionInFlight and has no
// other effect. The state returns to Idle however the call ends, panics
// included.
func (c *Controller) Submit(ctx context.Context, d Draft) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state == Submitting {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}
	c.draft = d
	if !d.PasswordsMatch() {
		c.mu.Unlock()
		c.deps.Notifier.Error(MessagePasswordMismatch)
		return ErrPasswordMismatch
	}
	c.state = Submitting
	c.mu.Unlock()

	outcome := Failed
	defer func() {
		c.mu.Lock()
		c.state = Idle
		c.lastOutcome = outcome
		c.mu.Unlock()
	}()

	if log.RequestID(ctx) == "" {
		if id, err := uuid.NewV4(); err == nil {
			ctx = log.WithRequestID(ctx, id.String())
		}
	}
	log.InfoWithContext(ctx, "registering %s", d.Email)

	resp, err := c.deps.Registrar.Register(ctx, d.Request())
	if err == nil {
		err = c.complete(ctx, resp)
	}
	if err != nil {
		c.fail(ctx, err)
		return err
	}
	outcome = Succeeded
	return nil
}

// complete publishes the identity, stores the token and schedules the
// dashboard move.
func (c *Controller) complete(ctx context.Context, resp *accounts.RegisterResponse) error {
	if resp == nil {
		return accounts.ErrInvalidResponse
	}
	c.deps.Identity.Set(resp.User)

	ttl := accounts.TokenTTL(resp.Token, c.now())
	if ttl < 0 {
		log.WarnWithContext(ctx, "session token already expired, storing without expiry")
		ttl = 0
	}
	if err := storage.SetString(ctx, c.deps.Store, types.TokenStorageKey, resp.Token, ttl); err != nil {
		return fmt.Errorf("%w: %v", ErrTokenNotPersisted, err)
	}
	log.InfoWithContext(ctx, "registered %s", resp.User)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if c.redirect != nil {
		c.redirect.Cancel()
	}
	c.deps.Notifier.Success(MessageSuccess)
	c.redirect = navigation.Schedule(c.redirectDelay, c.deps.Navigator, types.RouteDashboard)
	return nil
}

func (c *Controller) fail(ctx context.Context, err error) {
	log.ErrorWithContext(ctx, "registration failed: %v", err)

	msg, ok := accounts.MessageOf(err)
	if !ok {
		msg = MessageFailureFallback
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.deps.Notifier.Error(msg)
}

// Redirect returns the pending dashboard navigation, nil if none was scheduled.
func (c *Controller) Redirect() *navigation.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}

// GoToLogin moves to the login destination immediately.
func (c *Controller) GoToLogin() {
	c.deps.Navigator.Navigate(types.RouteLogin)
}

// CloseNotification hides the current notification
func (c *Controller) CloseNotification() {
	c.deps.Notifier.Close()
}

// Close tears the form down. A pending dashboard move is cancelled and the
// notification is dismissed. A request already in flight is not aborted: its
// identity and token are still recorded, but it shows nothing and navigates
// nowhere.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.redirect != nil {
		c.redirect.Cancel()
	}
	c.mu.Unlock()

	c.deps.Notifier.Close()
}
