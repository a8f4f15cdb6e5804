package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/resilience"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/tracing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type step struct {
	resp *Response
	err  error
}

// fakeTransport replays steps in order; the last step repeats
type fakeTransport struct {
	mu    sync.Mutex
	steps []step
	calls []Request
}

func (f *fakeTransport) Do(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, req)
	if len(f.steps) == 0 {
		return ok(), nil
	}
	s := f.steps[0]
	if len(f.steps) > 1 {
		f.steps = f.steps[1:]
	}
	return s.resp, s.err
}

func (f *fakeTransport) retries() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.Retry)
	}
	return out
}

func ok() *Response {
	return &Response{StatusCode: http.StatusOK, Body: []byte(`{"success":true}`)}
}

func statusErr(code int, body string) error {
	return &apierr.TransportError{
		Method:   http.MethodPost,
		URL:      "/attendance/checkIn",
		Sent:     true,
		Response: &apierr.RawResponse{StatusCode: code, Body: []byte(body)},
	}
}

func noResponse() error {
	return &apierr.TransportError{
		Method: http.MethodGet,
		URL:    "/user",
		Sent:   true,
		Err:    errors.New("dial tcp: connection refused"),
	}
}

func newTestClient(tr Transport, opts ...Option) *Client {
	base := []Option{WithTransport(tr), WithRetryDelay(time.Millisecond)}
	return New("https://api.test.com", append(base, opts...)...)
}

func TestNewDefaults(t *testing.T) {
	c := New("https://people.zoho.com/api/forms")

	assert.Equal(t, "https://people.zoho.com/api/forms", c.BaseURL())
	assert.Equal(t, 10*time.Second, c.Timeout())
	assert.Equal(t, 3, c.MaxRetries())
	assert.Equal(t, "rest", c.Name())
	assert.IsType(t, &RestyTransport{}, c.transport)
}

func TestSendSuccess(t *testing.T) {
	tr := &fakeTransport{steps: []step{{resp: ok()}}}
	c := newTestClient(tr)

	resp, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/user"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool `json:"success"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, []int{0}, tr.retries())
}

func TestSendRetriesTransientFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind apierr.Kind
	}{
		{"500", statusErr(500, `{"message":"Server Error"}`), apierr.KindAPI},
		{"502", statusErr(502, ""), apierr.KindAPI},
		{"503", statusErr(503, ""), apierr.KindAPI},
		{"429", statusErr(429, ""), apierr.KindRateLimit},
		{"no response", noResponse(), apierr.KindNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{steps: []step{{err: tt.err}}}
			c := newTestClient(tr)

			resp, err := c.Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))
			assert.Nil(t, resp)

			var classified *apierr.Error
			require.True(t, errors.As(err, &classified))
			assert.Equal(t, tt.kind, classified.Kind)
			assert.Equal(t, []int{0, 1, 2, 3}, tr.retries())
		})
	}
}

func TestSendTerminalStatusesAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   apierr.Kind
	}{
		{"400", 400, apierr.KindAPI},
		{"401", 401, apierr.KindAuthentication},
		{"403", 403, apierr.KindAPI},
		{"404", 404, apierr.KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{steps: []step{{err: statusErr(tt.status, "")}}}
			c := newTestClient(tr)

			_, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/user"))

			var classified *apierr.Error
			require.True(t, errors.As(err, &classified))
			assert.Equal(t, tt.kind, classified.Kind)
			assert.Equal(t, tt.status, classified.StatusCode)
			assert.Len(t, tr.calls, 1)
		})
	}
}

func TestSendRateLimitThenSuccess(t *testing.T) {
	tr := &fakeTransport{steps: []step{
		{err: statusErr(429, `{"message":"Too Many Requests"}`)},
		{resp: ok()},
	}}
	c := newTestClient(tr)

	resp, err := c.Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))
	require.NoError(t, err)
	assert.Equal(t, ok().Body, resp.Body)

	require.Len(t, tr.calls, 2)
	assert.Equal(t, 1, tr.calls[1].Retry)
}

func TestSendBadRequestMessage(t *testing.T) {
	t.Run("server message", func(t *testing.T) {
		tr := &fakeTransport{steps: []step{{err: statusErr(400, `{"message":"Invalid location"}`)}}}

		_, err := newTestClient(tr).Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))

		var classified *apierr.Error
		require.True(t, errors.As(err, &classified))
		assert.Equal(t, apierr.KindAPI, classified.Kind)
		assert.Equal(t, 400, classified.StatusCode)
		assert.Equal(t, "Invalid location", classified.Message)
		assert.Len(t, tr.calls, 1)
	})

	t.Run("default message", func(t *testing.T) {
		tr := &fakeTransport{steps: []step{{err: statusErr(400, "")}}}

		_, err := newTestClient(tr).Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))

		var classified *apierr.Error
		require.True(t, errors.As(err, &classified))
		assert.Equal(t, apierr.MsgClient, classified.Message)
		assert.Len(t, tr.calls, 1)
	})
}

func TestSendRetryCeilingAlreadyReached(t *testing.T) {
	tr := &fakeTransport{steps: []step{{err: statusErr(500, "")}}}
	c := newTestClient(tr)

	req := NewRequest(http.MethodPost, "/attendance/checkIn").WithRetry(3)
	_, err := c.Send(context.Background(), req)

	var classified *apierr.Error
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, apierr.KindAPI, classified.Kind)
	assert.Equal(t, 500, classified.StatusCode)
	assert.Equal(t, []int{3}, tr.retries())
}

func TestSendNonTransportFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"untyped error", errors.New("boom")},
		{"not dispatched", &apierr.TransportError{Method: "POST", URL: "/x", Sent: false, Err: errors.New("bad body")}},
		{"not dispatched with 5xx shape", &apierr.TransportError{
			Sent:     false,
			Response: &apierr.RawResponse{StatusCode: 503},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &fakeTransport{steps: []step{{err: tt.err}}}

			_, err := newTestClient(tr).Send(context.Background(), NewRequest(http.MethodGet, "/user"))

			assert.Len(t, tr.calls, 1)
			_, isClassified := apierr.KindOf(err)
			assert.True(t, isClassified)
		})
	}

	t.Run("untyped error classifies to network", func(t *testing.T) {
		tr := &fakeTransport{steps: []step{{err: errors.New("boom")}}}
		_, err := newTestClient(tr).Send(context.Background(), NewRequest(http.MethodGet, "/user"))
		assert.ErrorIs(t, err, apierr.ErrNetwork)
	})

	t.Run("nil response and nil error", func(t *testing.T) {
		tr := &fakeTransport{steps: []step{{}}}
		_, err := newTestClient(tr).Send(context.Background(), NewRequest(http.MethodGet, "/user"))
		assert.ErrorIs(t, err, apierr.ErrNetwork)
		assert.Len(t, tr.calls, 1)
	})
}

func TestSendRejectsUnsupportedMethod(t *testing.T) {
	tr := &fakeTransport{}

	_, err := newTestClient(tr).Send(context.Background(), NewRequest("TRACE", "/user"))

	assert.ErrorIs(t, err, apierr.ErrValidation)
	assert.Empty(t, tr.calls)
}

func TestSendCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &fakeTransport{steps: []step{{err: statusErr(503, "")}}}
	c := newTestClient(tr,
		WithRetryDelay(time.Hour),
		WithHook(func(ctx context.Context, a Attempt) {
			if a.Retrying {
				cancel()
			}
		}),
	)

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, NewRequest(http.MethodPost, "/attendance/checkIn"))
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, apierr.ErrNetwork)
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Send did not return after cancellation")
	}
	assert.Len(t, tr.calls, 1)
}

func TestSendLinearBackoffAndHooks(t *testing.T) {
	var attempts []Attempt
	tr := &fakeTransport{steps: []step{{err: noResponse()}}}
	c := newTestClient(tr,
		WithName("attendance"),
		WithRetryDelay(2*time.Millisecond),
		WithHook(func(ctx context.Context, a Attempt) { attempts = append(attempts, a) }),
	)

	_, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/user"))
	require.Error(t, err)

	require.Len(t, attempts, 4)
	for i, a := range attempts[:3] {
		assert.Equal(t, "attendance", a.API)
		assert.True(t, a.Retrying)
		assert.Equal(t, time.Duration(i+1)*2*time.Millisecond, a.Delay)
		assert.Equal(t, i, a.Request.Retry)
	}
	assert.False(t, attempts[3].Retrying)
	assert.Zero(t, attempts[3].Delay)
}

func TestSendRequestIDAndHeaderIsolation(t *testing.T) {
	tr := &fakeTransport{steps: []step{{err: statusErr(500, "")}, {resp: ok()}}}
	c := newTestClient(tr)

	req := NewRequest(http.MethodGet, "/user").WithHeader("Authorization", "Bearer token")
	_, err := c.Send(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, tr.calls, 2)
	id := tr.calls[0].Header[HeaderRequestID]
	assert.NotEmpty(t, id)
	assert.Equal(t, id, tr.calls[1].Header[HeaderRequestID])
	assert.Equal(t, "Bearer token", tr.calls[1].Header["Authorization"])

	// caller's descriptor is untouched
	assert.Equal(t, 0, req.Retry)
	assert.NotContains(t, req.Header, HeaderRequestID)

	t.Run("caller supplied id is kept", func(t *testing.T) {
		tr := &fakeTransport{}
		_, err := newTestClient(tr).Send(context.Background(),
			NewRequest(http.MethodGet, "/user").WithHeader(HeaderRequestID, "fixed"))
		require.NoError(t, err)
		assert.Equal(t, "fixed", tr.calls[0].Header[HeaderRequestID])
	})
}

// pathTransport fails the first attempt of every path, then succeeds
type pathTransport struct {
	mu   sync.Mutex
	seen map[string][]int
}

func (p *pathTransport) Do(ctx context.Context, req Request) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seen[req.Path] = append(p.seen[req.Path], req.Retry)
	if len(p.seen[req.Path]) == 1 {
		return nil, statusErr(503, "")
	}
	return ok(), nil
}

func TestSendConcurrentRequestsKeepOwnCounters(t *testing.T) {
	tr := &pathTransport{seen: map[string][]int{}}
	c := newTestClient(tr)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.Send(context.Background(), NewRequest(http.MethodGet, fmt.Sprintf("/item/%d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.Len(t, tr.seen, 5)
	for path, retries := range tr.seen {
		assert.Equal(t, []int{0, 1}, retries, path)
	}
}

func TestSendWithOpenBreaker(t *testing.T) {
	breaker := resilience.New("attendance", resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool { return !apierr.IsRetryable(err) },
	})

	tr := &fakeTransport{steps: []step{{err: statusErr(503, "")}}}
	c := newTestClient(tr, WithBreaker(breaker), WithMaxRetries(0))

	_, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/user"))
	require.Error(t, err)
	require.Equal(t, resilience.StateOpen, breaker.State())

	_, err = c.Send(context.Background(), NewRequest(http.MethodGet, "/user"))
	assert.ErrorIs(t, err, apierr.ErrNetwork)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, tr.calls, 1)
}

func TestNewBreakerIgnoresTerminalFailures(t *testing.T) {
	breaker := NewBreaker("chat", DefaultMaxRetries, BreakerSettings{}, nil)
	tr := &fakeTransport{steps: []step{{err: statusErr(401, "")}}}
	c := newTestClient(tr, WithBreaker(breaker))

	for i := 0; i < 15; i++ {
		_, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/authorization.json"))
		assert.ErrorIs(t, err, apierr.ErrAuthentication)
	}

	assert.Equal(t, resilience.StateClosed, breaker.State())
	assert.Len(t, tr.calls, 15)
}

func TestNewBreakerOpensWhenRetryBudgetIsSpent(t *testing.T) {
	breaker := NewBreaker("attendance", DefaultMaxRetries, BreakerSettings{}, nil)
	tr := &fakeTransport{steps: []step{{err: statusErr(503, "")}}}
	c := newTestClient(tr, WithBreaker(breaker))

	_, err := c.Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))
	assert.ErrorIs(t, err, apierr.ErrAPI)
	assert.Len(t, tr.calls, DefaultMaxRetries+1)
	assert.Equal(t, resilience.StateOpen, breaker.State())

	_, err = c.Send(context.Background(), NewRequest(http.MethodPost, "/attendance/checkIn"))
	assert.ErrorIs(t, err, apierr.ErrNetwork)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Len(t, tr.calls, DefaultMaxRetries+1, "open circuit must not reach the transport")
}

func TestBreakerSettingsThreshold(t *testing.T) {
	tests := []struct {
		name       string
		settings   BreakerSettings
		maxRetries int
		want       uint32
	}{
		{"derived from retries", BreakerSettings{}, 3, 4},
		{"no retries", BreakerSettings{}, 0, 1},
		{"explicit", BreakerSettings{Failures: 2}, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.settings.threshold(tt.maxRetries))
		})
	}
}

func TestSendRateLimiterHonoursContext(t *testing.T) {
	tr := &fakeTransport{}
	c := newTestClient(tr, WithRateLimit(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Send(ctx, NewRequest(http.MethodGet, "/user"))
	assert.ErrorIs(t, err, apierr.ErrNetwork)
	assert.Empty(t, tr.calls)
}

func TestSendLogsRetries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := &fakeTransport{steps: []step{{err: statusErr(502, "")}, {resp: ok()}}}
	c := newTestClient(tr, WithLogger(zap.New(core)), WithName("chat"))

	_, err := c.Send(context.Background(), NewRequest(http.MethodGet, "/authorization.json"))
	require.NoError(t, err)

	retries := logs.FilterMessage("Retrying request").All()
	require.Len(t, retries, 1)
	assert.Equal(t, "chat", retries[0].ContextMap()["api"])
	assert.Equal(t, "/authorization.json", retries[0].ContextMap()["path"])
	assert.Equal(t, 1, logs.FilterMessage("Request succeeded").Len())
}

func TestSendPropagatesTraceContext(t *testing.T) {
	tr := &fakeTransport{steps: []step{{err: noResponse()}, {resp: ok()}}}
	c := New("https://example.com", WithTransport(tr), WithRetryDelay(0))

	span, ctx := tracing.New("checkin", nil).StartSpan(context.Background(), "attendance.checkin")
	_, err := c.Send(ctx, NewRequest(http.MethodGet, "/user"))
	require.NoError(t, err)

	require.Len(t, tr.calls, 2)
	for _, call := range tr.calls {
		assert.Equal(t, span.TraceID.String(), call.Header[tracing.HeaderTraceID])
		assert.Equal(t, span.SpanID.String(), call.Header[tracing.HeaderSpanID])
	}
}
