// Package api is the authenticated gateway to the Media Janitor server and
// the typed calls the dashboard makes through it.
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/mmenanno/media-janitor/internal/constants"
	"github.com/mmenanno/media-janitor/internal/logging"
)

// Options configures a Client
type Options struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	HTTPClient        *http.Client
}

// Client attaches bearer credentials to every request, throttles and
// circuit-breaks outbound traffic, and reports 401s to the session-expiry
// callback with the route the user was on.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*response]

	mu               sync.RWMutex
	route            string
	onSessionExpired func(route string)
}

type response struct {
	status int
	body   []byte
}

// NewClient creates a new gateway client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultAPITimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = constants.DefaultRequestsPerSecond
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = constants.DefaultBurstSize
	}

	c := &Client{
		baseURL: strings.TrimSuffix(opts.BaseURL, "/"),
		token:   opts.Token,
		client:  httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		route:   "/",
	}
	c.breaker = newBreaker("janitor-api")
	return c
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*response] {
	log := logging.Component("api")
	return gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     constants.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < constants.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= constants.BreakerFailureRatio
		},
		// Client errors are answers, not outages
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *Error
			return errors.As(err, &apiErr) && apiErr.IsClientError()
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}

// OnSessionExpired registers the callback invoked on any 401
func (c *Client) OnSessionExpired(fn func(route string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSessionExpired = fn
}

// SetRoute records the route the user is currently on, handed to the
// session-expiry callback so it can redirect back after login
func (c *Client) SetRoute(route string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = route
}

// BaseURL returns the server root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Call performs a request and returns the raw status and body for 2xx responses
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body any) (int, []byte, error) {
	resp, err := c.call(ctx, method, path, query, body)
	if err != nil {
		return 0, nil, err
	}
	return resp.status, resp.body, nil
}

// do performs a request and decodes a 2xx JSON body into out (when non-nil)
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.call(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values, body any) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s %s request: %w", method, path, err)
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.roundTrip(ctx, method, path, target, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
		}
		if errors.Is(err, ErrUnauthorized) {
			c.sessionExpired()
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, target string, payload []byte) (*response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach janitor API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
		return nil, &Error{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: parseErrorMessage(data),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) sessionExpired() {
	c.mu.RLock()
	fn := c.onSessionExpired
	route := c.route
	c.mu.RUnlock()

	logging.Component("api").Warn().Str("route", route).Msg("session expired")
	if fn != nil {
		fn(route)
	}
}
