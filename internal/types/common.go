package types

// HTTP Header Constants
const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderAccept        = "Accept"
	HeaderUserAgent     = "User-Agent"
)

// Content types
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// Navigation destinations
const (
	RouteDashboard = "/dashboard"
	RouteLogin     = "/login"
)

// TokenStorageKey is the durable storage key holding the session token.
const TokenStorageKey = "token"
