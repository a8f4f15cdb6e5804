package rest

import (
	"context"
	"strings"
	"time"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Transport performs a single attempt. It returns a *Response for 2xx
// replies and an *apierr.TransportError for everything else.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// RestyTransport is the default Transport, built on resty
type RestyTransport struct {
	resty *resty.Client
}

// NewRestyTransport creates a transport bound to baseURL with a fixed
// per-attempt timeout. Retries are owned by Client, so resty's are disabled.
func NewRestyTransport(baseURL string, timeout time.Duration, userAgent string) *RestyTransport {
	// Pooled transport with keep-alive from go-retryablehttp
	pooled := retryablehttp.NewClient()
	pooled.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetTransport(pooled.HTTPClient.Transport)
	if userAgent != "" {
		restyClient.SetHeader("User-Agent", userAgent)
	}
	restyClient.JSONMarshal = sonic.Marshal
	restyClient.JSONUnmarshal = sonic.Unmarshal

	return &RestyTransport{resty: restyClient}
}

// Do executes req once
func (t *RestyTransport) Do(ctx context.Context, req Request) (*Response, error) {
	r := t.resty.R().SetContext(ctx).SetHeaders(req.Header)
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		return nil, &apierr.TransportError{
			Method: req.Method,
			URL:    req.Path,
			Sent:   dispatched(resp),
			Err:    err,
		}
	}

	if !resp.IsSuccess() {
		return nil, &apierr.TransportError{
			Method: req.Method,
			URL:    req.Path,
			Sent:   true,
			Response: &apierr.RawResponse{
				StatusCode: resp.StatusCode(),
				Header:     resp.Header(),
				Body:       resp.Body(),
			},
		}
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// dispatched reports whether resty got as far as building the HTTP request.
// Failures in request middleware (body marshalling, URL parsing) leave
// RawRequest unset.
func dispatched(resp *resty.Response) bool {
	return resp != nil && resp.Request != nil && resp.Request.RawRequest != nil
}
