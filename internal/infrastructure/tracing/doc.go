/*
Package tracing provides lightweight tracing for the check-in workflow.

# Overview

A check-in is one trace. Each step (attendance, chat) is a child span.
Requests sent inside a span carry X-Trace-ID and X-Span-ID headers, so
server-side logs can be matched with ours. Finished spans are logged
synchronously through zap.

# Usage

	tracer := tracing.New("checkin", logger)

	span, ctx := tracer.StartSpan(ctx, "attendance.checkin")
	defer span.Finish()

	if err := svc.CheckIn(ctx, location); err != nil {
		span.SetError(err)
	}
*/
package tracing
