package cli

import (
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/config"
	"github.com/MadhavPujara/CheckInSync/internal/rest"
)

// Env holds injectable dependencies for CLI commands.
//
// All fields have production defaults via DefaultEnv(). Tests override
// specific fields with the With* options.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	// ConfigLoader reads the CHECKIN_* configuration
	ConfigLoader func() (*config.Config, error)
	// StoreOpener opens the credential store at path
	StoreOpener func(path string, logger *zap.Logger) (credentials.ReadWriter, error)
	// Transport replaces the HTTP transport of both API clients when set
	Transport rest.Transport
	// Logger replaces the configured logger when set
	Logger *zap.Logger
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(fn func() (*config.Config, error)) EnvOption {
	return func(e *Env) { e.ConfigLoader = fn }
}

// WithStoreOpener sets the credential store factory.
func WithStoreOpener(fn func(path string, logger *zap.Logger) (credentials.ReadWriter, error)) EnvOption {
	return func(e *Env) { e.StoreOpener = fn }
}

// WithTransport sets the HTTP transport shared by the API clients.
func WithTransport(t rest.Transport) EnvOption {
	return func(e *Env) { e.Transport = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		ConfigLoader: config.Load,
		StoreOpener:  openFileStore,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

func openFileStore(path string, logger *zap.Logger) (credentials.ReadWriter, error) {
	return credentials.NewFileStore(path, logger)
}
