package metricsapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"shipment-dashboard/internal/domain"
	"shipment-dashboard/internal/platform/logging"
	"shipment-dashboard/internal/platform/metrics"
	"shipment-dashboard/internal/ports"
)

var _ ports.MetricsAPI = (*Client)(nil)

// Client implements ports.MetricsAPI over HTTP.
//
// It coordinates:
//   - Bounded retry with exponential backoff for idempotent GETs
//   - A circuit breaker shared by every endpoint
//   - Translation of non-2xx responses into domain.TransportError
//
// The client is safe for concurrent use.
type Client struct {
	session        *http.Client
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	breaker        *gobreaker.CircuitBreaker
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

type Options struct {
	// Timeout bounds each HTTP attempt. Defaults to 15s.
	Timeout time.Duration
	// MaxAttempts bounds GET attempts, including the first. Defaults to 3.
	MaxAttempts int
	// InitialBackoff is the first retry delay; it doubles per attempt. Defaults to 200ms.
	InitialBackoff time.Duration
	// FailureThreshold is the number of consecutive transport failures that
	// opens the breaker. Defaults to 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before a trial request. Defaults to 30s.
	OpenTimeout time.Duration

	HTTPClient *http.Client
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

func NewClient(baseURL string, opts Options) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("metrics api base url is empty")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("metrics api base url %q: %w", baseURL, err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 200 * time.Millisecond
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}

	session := opts.HTTPClient
	if session == nil {
		session = &http.Client{Timeout: opts.Timeout}
	}
	logger := logging.OrNop(opts.Logger)

	threshold := opts.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "metrics-api",
		Timeout: opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		session:        session,
		baseURL:        baseURL,
		maxAttempts:    opts.MaxAttempts,
		initialBackoff: opts.InitialBackoff,
		breaker:        breaker,
		logger:         logger,
		metrics:        opts.Metrics,
	}, nil
}

// countsAsSuccess keeps client errors and aborted requests from tripping
// the breaker; only transport failures and 5xx count against the API.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var te *domain.TransportError
	if errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500 && te.StatusCode != http.StatusTooManyRequests {
		return true
	}
	return false
}

// BreakerState reports the circuit breaker state (closed, half-open, open).
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// execute runs call through the breaker, mapping a rejected call to a
// TransportError wrapping domain.ErrCircuitOpen.
func (c *Client) execute(op string, call func() (any, error)) (any, error) {
	out, err := c.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &domain.TransportError{Op: op, Err: domain.ErrCircuitOpen}
	}
	return out, err
}
