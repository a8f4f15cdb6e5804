package chat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
)

type fakeExecutor struct {
	requests []rest.Request
	err      error
}

func (f *fakeExecutor) Send(_ context.Context, req rest.Request) (*rest.Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{
		StatusCode: http.StatusCreated,
		Body:       []byte(`{"id":1001,"status":"active","content":"Good Morning"}`),
	}, nil
}

func store(t *testing.T, keys *credentials.ChatKeys) credentials.Store {
	t.Helper()
	s := credentials.NewMemoryStore()
	if keys != nil {
		require.NoError(t, s.SetChatKeys(context.Background(), *keys))
	}
	return s
}

func TestCheckIn(t *testing.T) {
	exec := &fakeExecutor{}
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(exec, store(t, &credentials.ChatKeys{
		AccessToken: "bc-token",
		AccountID:   "999",
		ProjectID:   "42",
	}), zap.New(core))

	require.NoError(t, svc.CheckIn(context.Background(), "Good Morning"))

	require.Len(t, exec.requests, 1)
	req := exec.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/999/projects/42/messages.json", req.Path)
	assert.Equal(t, "Bearer bc-token", req.Header["Authorization"])
	assert.Equal(t, "application/json", req.Header["Content-Type"])
	assert.Equal(t, map[string]string{"content": "Good Morning"}, req.Body)

	posted := logs.FilterMessage("Message posted").All()
	require.Len(t, posted, 1)
	assert.Equal(t, int64(1001), posted[0].ContextMap()["message_id"])
}

func TestCheckInValidation(t *testing.T) {
	tests := []struct {
		name string
		keys *credentials.ChatKeys
		want string
	}{
		{"no bundle", nil, MsgKeysNotFound},
		{"empty token", &credentials.ChatKeys{AccountID: "1", ProjectID: "2"}, MsgKeysNotFound},
		{"no account", &credentials.ChatKeys{AccessToken: "t", ProjectID: "2"}, MsgProjectNotFound},
		{"no project", &credentials.ChatKeys{AccessToken: "t", AccountID: "1"}, MsgProjectNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			svc := NewService(exec, store(t, tt.keys), nil)

			err := svc.CheckIn(context.Background(), "Good Morning")

			var apiErr *apierr.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, apierr.KindValidation, apiErr.Kind)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Empty(t, exec.requests)
		})
	}
}

func TestCheckInUnreadableStore(t *testing.T) {
	exec := &fakeExecutor{}
	svc := NewService(exec, store(t, &credentials.ChatKeys{
		AccessToken: "bc-token", AccountID: "999", ProjectID: "42",
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := svc.CheckIn(ctx, "Good Morning")

	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.KindNetwork, apiErr.Kind)
	assert.Equal(t, MsgKeysUnreadable, apiErr.Message)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, exec.requests)
}

func TestCheckInPropagatesClassifiedError(t *testing.T) {
	exec := &fakeExecutor{err: apierr.NewAPIError("Project not found", http.StatusNotFound, nil)}
	svc := NewService(exec, store(t, &credentials.ChatKeys{
		AccessToken: "bc-token",
		AccountID:   "999",
		ProjectID:   "42",
	}), nil)

	err := svc.CheckIn(context.Background(), "Good Morning")
	assert.ErrorIs(t, err, apierr.ErrAPI)
	assert.Contains(t, err.Error(), "Project not found")
}

func TestValidateCredentials(t *testing.T) {
	tokenOnly := &credentials.ChatKeys{AccessToken: "bc-token"}

	tests := []struct {
		name string
		keys *credentials.ChatKeys
		err  error
		want bool
		sent int
	}{
		{"accepted without project", tokenOnly, nil, true, 1},
		{"unauthorized", tokenOnly, apierr.NewAuthenticationError(""), false, 1},
		{"server error", tokenOnly, apierr.NewAPIError("", http.StatusInternalServerError, nil), false, 1},
		{"missing keys", nil, nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{err: tt.err}
			svc := NewService(exec, store(t, tt.keys), nil)

			assert.Equal(t, tt.want, svc.ValidateCredentials(context.Background()))
			require.Len(t, exec.requests, tt.sent)
			if tt.sent > 0 {
				assert.Equal(t, "/authorization.json", exec.requests[0].Path)
			}
		})
	}
}

func TestCheckInOverHTTPRateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/999/projects/42/messages.json", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"content":"Good Morning"}`, string(body))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := rest.New(server.URL, rest.WithMaxRetries(2), rest.WithRetryDelay(time.Millisecond))
	svc := NewService(client, store(t, &credentials.ChatKeys{
		AccessToken: "bc-token",
		AccountID:   "999",
		ProjectID:   "42",
	}), nil)

	err := svc.CheckIn(context.Background(), "Good Morning")

	assert.ErrorIs(t, err, apierr.ErrRateLimit)
	assert.Equal(t, int32(3), calls.Load(), "429 is retried up to the ceiling")
}
