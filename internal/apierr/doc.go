// Package apierr defines the classified error taxonomy shared by the REST
// client and the API services built on it.
//
// Every failure leaving the client is an *Error tagged with one Kind:
//   - NetworkError: nothing usable was received (connection failure, timeout)
//   - AuthenticationError: status 401
//   - RateLimitError: status 429
//   - ValidationError: a caller precondition failed before sending
//   - APIError: any other non-2xx status, with status code and body attached
//
// Callers match with errors.As, or errors.Is against the kind sentinels:
//
//	if errors.Is(err, apierr.ErrRateLimit) {
//		// back off
//	}
package apierr
