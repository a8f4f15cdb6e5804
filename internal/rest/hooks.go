package rest

import (
	"context"
	"time"
)

// Attempt describes one finished attempt of a logical request
type Attempt struct {
	// API is the client name, e.g. "attendance"
	API      string
	Request  Request
	Response *Response
	// Err is the raw failure of the attempt, nil on success
	Err      error
	Duration time.Duration
	// Retrying is true when the client will reissue the request after Delay
	Retrying bool
	Delay    time.Duration
}

// Hook observes every completed attempt. Hooks run synchronously on the
// calling goroutine before the retry decision is acted on.
type Hook func(ctx context.Context, a Attempt)
