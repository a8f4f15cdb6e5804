package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/MadhavPujara/CheckInSync/internal/apierr"
	"github.com/MadhavPujara/CheckInSync/internal/checkin"
	"github.com/MadhavPujara/CheckInSync/internal/cli"
)

// Injected at build time via ldflags.
var version = "dev"

const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitSetup     = 3
	ExitCheckIn   = 4
	ExitInterrupt = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	root := cli.RootCmd(cli.DefaultEnv(), version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, cli.UserMessage(err))
		cancel()
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case errors.Is(err, checkin.ErrCheckInFailed):
		return ExitCheckIn
	case errors.Is(err, cli.ErrSetupIncomplete), errors.Is(err, cli.ErrCredentialsRejected):
		return ExitSetup
	case errors.Is(err, apierr.ErrValidation), isUsageError(err):
		return ExitUsage
	default:
		return ExitGeneral
	}
}

// Cobra does not expose typed flag errors.
var usageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range usageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
