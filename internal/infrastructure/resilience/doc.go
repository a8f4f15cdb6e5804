/*
Package resilience provides the circuit breaker that guards each remote API.

# Overview

A breaker counts failed calls to one API and, once ReadyToTrip says so,
rejects further calls until Timeout has passed. The REST client only reports
transient failures (no response, 5xx, 429) as failures, so a run of bad
credentials never opens the circuit.

# Usage

	breaker := resilience.New("attendance", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !apierr.IsRetryable(err)
		},
	})

	err := breaker.Do(func() error {
		_, err := transport.Do(ctx, req)
		return err
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open
*/
package resilience
