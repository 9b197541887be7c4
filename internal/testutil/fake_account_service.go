package testutil

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/cafoot/client/accounts"
	"github.com/cafoot/client/internal/types"
)

// RecordedRequest is one request seen by FakeAccountService
type RecordedRequest struct {
	Body      accounts.RegisterRequest
	RequestID string
	UserAgent string
	Accept    string
}

// Reply is a canned response of FakeAccountService
type Reply struct {
	Status int
	Body   any
	Raw    string
}

// FakeAccountService is an HTTP Account Service stand-in served by fiber on
// a loopback port.
type FakeAccountService struct {
	URL string

	app   *fiber.App
	mu    sync.Mutex
	reqs  []RecordedRequest
	reply Reply
}

// NewFakeAccountService starts the fake on 127.0.0.1 and stops it with t.Cleanup.
func NewFakeAccountService(t testing.TB, registerPath string) *FakeAccountService {
	t.Helper()

	f := &FakeAccountService{
		reply: Reply{Status: http.StatusCreated, Body: fiber.Map{"user": fiber.Map{"id": 1}, "token": "test-token"}},
	}
	f.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	f.app.Post(registerPath, f.handleRegister)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = f.app.Listener(ln) }()
	t.Cleanup(func() { _ = f.app.Shutdown() })

	f.URL = "http://" + ln.Addr().String()
	return f
}

// ReplyWith sets the response for following requests
func (f *FakeAccountService) ReplyWith(r Reply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reply = r
}

// Requests returns the requests seen so far
func (f *FakeAccountService) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.reqs...)
}

func (f *FakeAccountService) handleRegister(c *fiber.Ctx) error {
	var body accounts.RegisterRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(http.StatusBadRequest).JSON(accounts.ErrorResponse{
			Code:    accounts.CodeValidationFailed,
			Message: "Invalid request body",
		})
	}

	f.mu.Lock()
	f.reqs = append(f.reqs, RecordedRequest{
		Body:      body,
		RequestID: c.Get(types.HeaderRequestID),
		UserAgent: c.Get(types.HeaderUserAgent),
		Accept:    c.Get(types.HeaderAccept),
	})
	reply := f.reply
	f.mu.Unlock()

	c.Status(reply.Status)
	if reply.Raw != "" {
		return c.SendString(reply.Raw)
	}
	if reply.Body == nil {
		return nil
	}
	return c.JSON(reply.Body)
}
