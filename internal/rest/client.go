package rest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/resilience"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/tracing"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults for New.
const (
	DefaultTimeout    = 10 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
	DefaultUserAgent  = "CheckInSync/1.0"
)

var errNoResponse = errors.New("transport returned neither response nor error")

// Executor sends requests; services depend on this instead of *Client
type Executor interface {
	Send(ctx context.Context, req Request) (*Response, error)
}

// Client executes requests against one base URL, retrying transient
// failures and classifying everything else.
//
// A Client is safe for concurrent use. Its configuration is fixed by New.
type Client struct {
	name       string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	userAgent  string

	transport Transport
	limiter   *rate.Limiter
	breaker   *resilience.Breaker
	logger    *zap.Logger
	hooks     []Hook
}

// Option configures a Client
type Option func(*Client)

// WithName labels the client in logs and metrics
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// WithTimeout sets the per-attempt timeout of the default transport
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxRetries sets the retry ceiling. Negative values mean no retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = max(n, 0) }
}

// WithRetryDelay sets the base delay; retry n waits n times this long
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.retryDelay = d
		}
	}
}

// WithUserAgent sets the User-Agent of the default transport
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport replaces the default resty transport
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithRateLimit caps attempts per second; rps <= 0 means unlimited
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
	}
}

// WithBreaker runs every attempt through b
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHook registers a completion hook
func WithHook(h Hook) Option {
	return func(c *Client) { c.hooks = append(c.hooks, h) }
}

// New creates a client bound to baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		name:       "rest",
		baseURL:    baseURL,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.transport == nil {
		c.transport = NewRestyTransport(c.baseURL, c.timeout, c.userAgent)
	}
	c.logger = c.logger.With(zap.String("api", c.name))

	return c
}

// Name returns the client's label
func (c *Client) Name() string { return c.name }

// BaseURL returns the base URL requests are resolved against
func (c *Client) BaseURL() string { return c.baseURL }

// Timeout returns the per-attempt timeout
func (c *Client) Timeout() time.Duration { return c.timeout }

// MaxRetries returns the retry ceiling
func (c *Client) MaxRetries() int { return c.maxRetries }

// Send issues req and returns the 2xx response, or exactly one
// *apierr.Error once the failure is terminal or retries are exhausted.
//
// Retries are strictly sequential. Retry n waits n times the base delay and
// reissues a copy of req whose Retry field is n.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	if !ValidMethod(req.Method) {
		return nil, apierr.NewValidationError(fmt.Sprintf("unsupported method %q", req.Method))
	}

	req.Header = maps.Clone(req.Header)
	if req.Header == nil {
		req.Header = map[string]string{}
	}
	if req.Header[HeaderRequestID] == "" {
		req.Header[HeaderRequestID] = uuid.NewString()
	}
	tracing.InjectTraceContext(ctx, req.Header)

	for {
		start := time.Now()
		resp, err := c.attempt(ctx, req)
		if err == nil && resp == nil {
			err = errNoResponse
		}

		a := Attempt{
			API:      c.name,
			Request:  req,
			Response: resp,
			Err:      err,
			Duration: time.Since(start),
		}
		if err == nil {
			c.complete(ctx, a)
			return resp, nil
		}

		a.Delay, a.Retrying = c.nextRetry(req, err)
		c.complete(ctx, a)

		if !a.Retrying {
			return nil, c.reject(req, err)
		}

		if err := sleep(ctx, a.Delay); err != nil {
			return nil, apierr.NewNetworkError("", err)
		}
		req = req.WithRetry(req.Retry + 1)
	}
}

// attempt runs one transport call behind the limiter and breaker
func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apierr.NewNetworkError("", fmt.Errorf("rate limiter: %w", err))
	}

	if c.breaker == nil {
		return c.transport.Do(ctx, req)
	}

	var resp *Response
	err := c.breaker.Do(func() error {
		var err error
		resp, err = c.transport.Do(ctx, req)
		return err
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, apierr.NewNetworkError("Service unavailable", err)
	}
	return resp, err
}

// nextRetry decides whether a failed attempt is reissued and after how long
func (c *Client) nextRetry(req Request, err error) (time.Duration, bool) {
	var te *apierr.TransportError
	if errors.As(err, &te) && !te.Sent {
		return 0, false
	}

	next := req.Retry + 1
	if !apierr.IsRetryable(err) || next > c.maxRetries {
		return 0, false
	}
	return c.retryDelay * time.Duration(next), true
}

func (c *Client) complete(ctx context.Context, a Attempt) {
	fields := []zap.Field{
		zap.String("request_id", a.Request.Header[HeaderRequestID]),
		zap.String("method", a.Request.Method),
		zap.String("path", a.Request.Path),
		zap.Int("retry", a.Request.Retry),
		zap.Duration("duration", a.Duration),
	}

	switch {
	case a.Err == nil:
		c.logger.Debug("Request succeeded", append(fields, zap.Int("status", a.Response.StatusCode))...)
	case a.Retrying:
		c.logger.Warn("Retrying request",
			append(fields, zap.Duration("delay", a.Delay), zap.Error(a.Err))...)
	}

	for _, h := range c.hooks {
		h(ctx, a)
	}
}

func (c *Client) reject(req Request, err error) *apierr.Error {
	classified := apierr.Classify(err)
	c.logger.Debug("Request failed",
		zap.String("request_id", req.Header[HeaderRequestID]),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("retry", req.Retry),
		zap.Stringer("kind", classified.Kind),
		zap.Int("status", classified.StatusCode),
		zap.Error(err),
	)
	return classified
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
