package testutil

import (
	"context"
	"sync"

	"github.com/cafoot/client/accounts"
)

// FakeRegistrar is a test-only accounts.Registrar that records calls and
// returns a canned reply. Hold makes calls block until released so tests can
// observe a registration in flight.
type FakeRegistrar struct {
	mu       sync.Mutex
	Calls    []accounts.RegisterRequest
	Response *accounts.RegisterResponse
	Err      error
	Panic    any

	gate    chan struct{}
	started chan struct{}
}

// NewFakeRegistrar returns a registrar replying with resp (or err when resp is nil)
func NewFakeRegistrar(resp *accounts.RegisterResponse, err error) *FakeRegistrar {
	return &FakeRegistrar{Response: resp, Err: err, started: make(chan struct{}, 16)}
}

// Hold blocks every following call until the returned release func runs.
func (f *FakeRegistrar) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	gate := make(chan struct{})
	f.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Started receives one value per call once the call has been recorded
func (f *FakeRegistrar) Started() <-chan struct{} {
	return f.started
}

// Register implements accounts.Registrar
func (f *FakeRegistrar) Register(ctx context.Context, req accounts.RegisterRequest) (*accounts.RegisterResponse, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, req)
	gate := f.gate
	resp, err, p := f.Response, f.Err, f.Panic
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p != nil {
		panic(p)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// CallCount returns how many calls were made
func (f *FakeRegistrar) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// LastCall returns the most recent request
func (f *FakeRegistrar) LastCall() *accounts.RegisterRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return nil
	}
	c := f.Calls[len(f.Calls)-1]
	return &c
}
