// Package rest provides the resilient REST client shared by the API services.
//
// A Client is bound to one base URL. Send issues a Request and either returns
// a 2xx Response or exactly one *apierr.Error:
//   - no response, 5xx and 429 are retried up to MaxRetries times
//   - retry n waits n × RetryDelay (1s, 2s, 3s by default)
//   - every other status is terminal and classified immediately
//
// Built on go-resty/resty over the go-retryablehttp pooled transport, with
// optional rate limiting (x/time/rate) and a circuit breaker per API.
//
// Example Usage:
//
//	client := rest.New("https://people.zoho.com/api/forms",
//		rest.WithName("attendance"),
//		rest.WithLogger(logger.Logger),
//	)
//	req := rest.NewRequest(http.MethodGet, "/user").
//		WithHeader("Authorization", "Bearer "+token)
//	resp, err := client.Send(ctx, req)
package rest
