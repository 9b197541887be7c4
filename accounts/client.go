// Package accounts talks to the remote Account Service that creates
// accounts and issues session tokens.
package accounts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"

	"github.com/cafoot/client/internal/pkg/log"
	"github.com/cafoot/client/internal/types"
)

// maxBodySize bounds how much of a reply is read
const maxBodySize = 1 << 20

// Registrar is the registration operation of the Account Service.
type Registrar interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// HTTPClient is the production Registrar speaking JSON over HTTP.
type HTTPClient struct {
	registerURL string
	userAgent   string
	httpClient  *http.Client
}

// Option customises an HTTPClient
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(h *HTTPClient) { h.userAgent = ua }
}

// NewHTTPClient creates a client posting to registerURL
func NewHTTPClient(registerURL string, timeout time.Duration, opts ...Option) (*HTTPClient, error) {
	if !strings.HasPrefix(registerURL, "http://") && !strings.HasPrefix(registerURL, "https://") {
		return nil, fmt.Errorf("account service url must be absolute, got %q", registerURL)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &HTTPClient{
		registerURL: registerURL,
		userAgent:   "cafoot-client",
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register creates an account and returns the new identity and token.
func (c *HTTPClient) Register(ctx context.Context, in RegisterRequest) (*RegisterResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode register request: %w", err)
	}

	requestID := log.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.Must(uuid.NewV4()).String()
		ctx = log.WithRequestID(ctx, requestID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.registerURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create register request: %w", err)
	}
	req.Header.Set(types.HeaderContentType, types.ContentTypeJSON)
	req.Header.Set(types.HeaderAccept, types.ContentTypeJSON)
	req.Header.Set(types.HeaderRequestID, requestID)
	if c.userAgent != "" {
		req.Header.Set(types.HeaderUserAgent, c.userAgent)
	}

	log.InfoWithContext(ctx, "POST %s", c.registerURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := decodeServiceError(resp.StatusCode, raw)
		log.WarnWithContext(ctx, "register rejected: status=%d code=%s", serr.StatusCode, serr.Code)
		return nil, serr
	}

	var out RegisterResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: missing token", ErrInvalidResponse)
	}
	return &out, nil
}

func decodeServiceError(status int, raw []byte) *ServiceError {
	serr := &ServiceError{StatusCode: status}
	var er ErrorResponse
	if err := json.Unmarshal(raw, &er); err != nil {
		return serr
	}
	serr.Code = er.Code
	serr.Message = er.text()
	serr.Details = er.Details
	return serr
}
