package checkin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/monitoring"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/tracing"
	"github.com/MadhavPujara/CheckInSync/internal/logging"
)

// DefaultMessage is posted to the chat after a successful check-in
const DefaultMessage = "Good Morning"

// ErrCheckInFailed marks every failure returned by Run. The classified cause
// stays reachable through errors.As.
var ErrCheckInFailed = errors.New("check-in failed")

// FailureMessage is what the user sees when Run fails
const FailureMessage = "Failed to check in. Please try again."

// AttendanceService records the check-in
type AttendanceService interface {
	CheckIn(ctx context.Context, location string) error
	ValidateCredentials(ctx context.Context) bool
}

// ChatService notifies the team
type ChatService interface {
	CheckIn(ctx context.Context, message string) error
	ValidateCredentials(ctx context.Context) bool
}

// Location is a WGS84 position
type Location struct {
	Latitude  float64
	Longitude float64
}

// String formats the location as "lat,lng"
func (l Location) String() string {
	return strconv.FormatFloat(l.Latitude, 'f', -1, 64) + "," +
		strconv.FormatFloat(l.Longitude, 'f', -1, 64)
}

// Validate rejects coordinates outside the valid ranges
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return apierr.NewValidationError(fmt.Sprintf("latitude %v out of range", l.Latitude))
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return apierr.NewValidationError(fmt.Sprintf("longitude %v out of range", l.Longitude))
	}
	return nil
}

// Status is the outcome of the credential checks
type Status struct {
	Attendance bool
	Chat       bool
}

// Ready reports whether both services accept their credentials
func (s Status) Ready() bool {
	return s.Attendance && s.Chat
}

// Runner performs the check-in workflow
type Runner struct {
	attendance AttendanceService
	chat       ChatService
	message    string
	logger     *zap.Logger
	metrics    *monitoring.Metrics
	tracer     *tracing.Tracer
}

// Option configures a Runner
type Option func(*Runner)

// WithMessage overrides the chat message; empty keeps the default
func WithMessage(msg string) Option {
	return func(r *Runner) {
		if msg != "" {
			r.message = msg
		}
	}
}

// WithLogger sets the logger; nil keeps the no-op logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records operation counts and durations in m
func WithMetrics(m *monitoring.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithTracer traces each run as one span with a child span per step
func WithTracer(t *tracing.Tracer) Option {
	return func(r *Runner) { r.tracer = t }
}

// NewRunner creates a runner over the two services
func NewRunner(attendance AttendanceService, chat ChatService, opts ...Option) *Runner {
	r := &Runner{
		attendance: attendance,
		chat:       chat,
		message:    DefaultMessage,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Message returns the chat message Run posts
func (r *Runner) Message() string { return r.message }

// Run checks in at loc, then posts the message. Chat is only contacted once
// attendance succeeded. Any failure is logged with its classified kind and
// reported as ErrCheckInFailed.
func (r *Runner) Run(ctx context.Context, loc Location) error {
	timer := monitoring.NewTimer(r.metrics, "checkin")
	span, ctx := r.tracer.StartSpan(ctx, "checkin")
	span.SetTag("location", loc.String())
	defer span.Finish()

	if err := loc.Validate(); err != nil {
		return r.fail(timer, span, "location", err)
	}

	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"attendance", func(ctx context.Context) error { return r.attendance.CheckIn(ctx, loc.String()) }},
		{"chat", func(ctx context.Context) error { return r.chat.CheckIn(ctx, r.message) }},
	}
	for _, step := range steps {
		if err := r.step(ctx, step.name, step.run); err != nil {
			return r.fail(timer, span, step.name, err)
		}
	}

	d := timer.Stop("success")
	r.logger.Info("Checked in and notified team",
		zap.String("location", loc.String()),
		zap.String("trace_id", span.TraceID.String()),
		zap.Duration("duration", d))
	return nil
}

// step runs fn inside a child span
func (r *Runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	span, ctx := r.tracer.StartSpan(ctx, name+".checkin")
	span.SetTag("api", name)
	defer span.Finish()

	err := fn(ctx)
	if err != nil {
		span.SetTag("status", "error")
		if kind, ok := apierr.KindOf(err); ok {
			span.SetTag("error_kind", kind.String())
		}
		span.SetError(err)
		return err
	}
	span.SetTag("status", "ok")
	return nil
}

func (r *Runner) fail(timer *monitoring.Timer, span *tracing.Span, step string, err error) error {
	timer.Stop("failure")
	span.SetError(err)
	r.logger.Error("Check-in failed",
		zap.String("step", step),
		zap.String("trace_id", span.TraceID.String()),
		logging.ErrorKind(err),
		zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrCheckInFailed, step, err)
}

// Validate checks both services concurrently
func (r *Runner) Validate(ctx context.Context) Status {
	var (
		status Status
		g      errgroup.Group
	)
	g.Go(func() error {
		status.Attendance = r.attendance.ValidateCredentials(ctx)
		return nil
	})
	g.Go(func() error {
		status.Chat = r.chat.ValidateCredentials(ctx)
		return nil
	})
	_ = g.Wait()

	r.logger.Debug("Credentials validated",
		zap.Bool("attendance", status.Attendance),
		zap.Bool("chat", status.Chat))
	return status
}
