package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MadhavPujara/CheckInSync/internal/checkin"
	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/config"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/monitoring"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/resilience"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/tracing"
	"github.com/MadhavPujara/CheckInSync/internal/logging"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
	"github.com/MadhavPujara/CheckInSync/internal/services/attendance"
	"github.com/MadhavPujara/CheckInSync/internal/services/chat"
	"github.com/MadhavPujara/CheckInSync/internal/shared/paths"
)

// app is the wired object graph for one command invocation
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   credentials.ReadWriter
	metrics *monitoring.Metrics
	runner  *checkin.Runner

	// breakers holds one circuit breaker per API, shared by every request
	// the process makes to it
	breakers map[string]*resilience.Breaker

	metricsFile string
}

// appOptions carry per-invocation flags into the wiring
type appOptions struct {
	metricsFile string
	// message overrides the configured chat message when set
	message string
}

// newApp wires configuration, logging, storage and both API services
func newApp(env *Env, opts appOptions) (*app, error) {
	cfg, err := env.ConfigLoader()
	if err != nil {
		return nil, err
	}

	logger := env.Logger
	if logger == nil {
		l, err := logging.New(logging.Config{
			Level:       cfg.Logging.Level,
			Development: cfg.Logging.Development,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l.Logger
	}

	file, err := paths.Resolve(cfg.Credentials.File)
	if err != nil {
		return nil, fmt.Errorf("credentials file: %w", err)
	}
	cfg.Credentials.File = file

	store, err := env.StoreOpener(file, logger.Named("credentials"))
	if err != nil {
		return nil, fmt.Errorf("open credentials: %w", err)
	}

	metrics := monitoring.NewMetrics()

	breakers := map[string]*resilience.Breaker{}
	if cfg.HTTP.BreakerEnabled {
		settings := rest.BreakerSettings{
			Failures: cfg.HTTP.BreakerFailures,
			Timeout:  cfg.HTTP.BreakerTimeout,
		}
		for _, name := range []string{"attendance", "chat"} {
			breakers[name] = rest.NewBreaker(name, cfg.HTTP.MaxRetries, settings, logger.Named("breaker"))
		}
	}

	attendanceClient := newClient(env, cfg, "attendance", cfg.API.AttendanceBaseURL, logger, metrics, breakers["attendance"])
	chatClient := newClient(env, cfg, "chat", cfg.API.ChatBaseURL, logger, metrics, breakers["chat"])

	message := cfg.CheckIn.Message
	if opts.message != "" {
		message = opts.message
	}

	runner := checkin.NewRunner(
		attendance.NewService(attendanceClient, store, logger),
		chat.NewService(chatClient, store, logger),
		checkin.WithMessage(message),
		checkin.WithLogger(logger.Named("checkin")),
		checkin.WithMetrics(metrics),
		checkin.WithTracer(tracing.New("checkin", logger.Named("trace"))),
	)

	return &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		metrics:     metrics,
		runner:      runner,
		breakers:    breakers,
		metricsFile: opts.metricsFile,
	}, nil
}

func newClient(env *Env, cfg *config.Config, name, baseURL string, logger *zap.Logger, metrics *monitoring.Metrics, breaker *resilience.Breaker) *rest.Client {
	opts := []rest.Option{
		rest.WithName(name),
		rest.WithTimeout(cfg.HTTP.Timeout),
		rest.WithMaxRetries(cfg.HTTP.MaxRetries),
		rest.WithRetryDelay(cfg.HTTP.RetryDelay),
		rest.WithRateLimit(cfg.HTTP.RateLimitRPS),
		rest.WithLogger(logger.Named("rest")),
		rest.WithHook(metrics.Hook()),
	}
	if breaker != nil {
		opts = append(opts, rest.WithBreaker(breaker))
	}
	if env.Transport != nil {
		opts = append(opts, rest.WithTransport(env.Transport))
	}
	return rest.New(baseURL, opts...)
}

// close flushes metrics and logs. Errors are logged, never returned, so they
// cannot mask the command's own result.
func (a *app) close() {
	if a.metricsFile != "" {
		if err := a.metrics.WriteTextfile(a.metricsFile); err != nil {
			a.logger.Warn("Failed to write metrics", zap.String("path", a.metricsFile), zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
