package constants

import "time"

// Pagination constants
const (
	// DefaultIssuesPerPage is the default number of issue rows requested per page
	DefaultIssuesPerPage = 50

	// MaxIssuesPerPage is the maximum number of issue rows that can be requested per page
	MaxIssuesPerPage = 500

	// DefaultHistoryLimit is the default number of journal rows shown by history views
	DefaultHistoryLimit = 50
)

// Toast constants
const (
	// ToastDismissAfter is how long a toast stays visible before auto-dismissing
	ToastDismissAfter = 3 * time.Second

	// MaxToasts caps the number of simultaneously visible toasts
	MaxToasts = 20
)

// API and concurrency constants
const (
	// DefaultActionTimeout bounds a single mutation round-trip
	DefaultActionTimeout = 30 * time.Second

	// DefaultAPITimeout is the transport timeout for read requests
	DefaultAPITimeout = 30 * time.Second

	// MaxErrorBodyBytes is how much of an error response body is read for the server message
	MaxErrorBodyBytes = 64 << 10
)

// Rate limiting constants
const (
	// DefaultRequestsPerSecond is the default outbound and inbound rate limit
	DefaultRequestsPerSecond = 10

	// DefaultBurstSize is the default burst size for rate limiting
	DefaultBurstSize = 20
)

// Circuit breaker constants
const (
	// BreakerMinRequests is the request count needed before the breaker may open
	BreakerMinRequests = 10

	// BreakerFailureRatio opens the breaker once this share of requests failed
	BreakerFailureRatio = 0.6

	// BreakerOpenTimeout is how long the breaker stays open before probing again
	BreakerOpenTimeout = time.Minute
)

// Integration status cache
const (
	// DefaultStatusCacheTTL is how long integration status is reused before refetching
	DefaultStatusCacheTTL = 30 * time.Second
)
