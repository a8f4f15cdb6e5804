package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MadhavPujara/CheckInSync/internal/checkin"
	"github.com/MadhavPujara/CheckInSync/internal/credentials"
	"github.com/MadhavPujara/CheckInSync/internal/infrastructure/tracing"
	"github.com/MadhavPujara/CheckInSync/internal/logging"
	"github.com/MadhavPujara/CheckInSync/internal/shared/utils"
)

const flagMetricsTextfile = "metrics-textfile"

// RootCmd creates the checkin command tree.
// The env parameter provides injectable dependencies for testing.
func RootCmd(env *Env, version string) *cobra.Command {
	root := &cobra.Command{
		Use:     "checkin",
		Short:   "Record attendance and greet the team",
		Version: version,
		// Errors are printed by the caller so check-in failures stay generic.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.PersistentFlags().String(flagMetricsTextfile, "",
		"write Prometheus metrics to this file on exit (node_exporter textfile format)")

	root.AddCommand(RunCmd(env))
	root.AddCommand(ValidateCmd(env))
	root.AddCommand(SetupCmd(env))
	root.AddCommand(ResetCmd(env))
	return root
}

// withApp builds the app for cmd, runs fn and flushes on the way out
func withApp(env *Env, cmd *cobra.Command, fn func(*app) error) error {
	return withAppOptions(env, cmd, appOptions{}, fn)
}

func withAppOptions(env *Env, cmd *cobra.Command, opts appOptions, fn func(*app) error) error {
	opts.metricsFile, _ = cmd.Flags().GetString(flagMetricsTextfile)

	a, err := newApp(env, opts)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(a)
}

// RunCmd creates the "run" command.
func RunCmd(env *Env) *cobra.Command {
	var (
		loc     checkin.Location
		message string
		traceID string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check in at a location and notify the team",
		Long: `Check in with the attendance service at the given coordinates, then
post a greeting to the team chat. The chat is only notified when the
check-in succeeded.`,
		Example: `  checkin run --lat 12.9716 --lng 77.5946
  checkin run --lat 12.9716 --lng 77.5946 --message "Morning all"
  checkin run --lat 12.9716 --lng 77.5946 --trace-id "$UPSTREAM_TRACE_ID"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if traceID != "" {
				var err error
				if ctx, err = tracing.ContinueTrace(ctx, traceID); err != nil {
					return err
				}
			}
			return withAppOptions(env, cmd, appOptions{message: message}, func(a *app) error {
				if !a.store.SetupComplete(ctx) {
					return ErrSetupIncomplete
				}
				if err := a.runner.Run(ctx, loc); err != nil {
					return err
				}
				fmt.Fprintln(env.Stdout, "Successfully checked in and notified team!")
				return nil
			})
		},
	}

	cmd.Flags().Float64Var(&loc.Latitude, "lat", 0, "latitude in decimal degrees")
	cmd.Flags().Float64Var(&loc.Longitude, "lng", 0, "longitude in decimal degrees")
	cmd.Flags().StringVar(&message, "message", "", "chat message (default from CHECKIN_CHECKIN_MESSAGE)")
	cmd.Flags().StringVar(&traceID, "trace-id", "", "join an existing trace (ULID, optionally trace_ prefixed)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

// ValidateCmd creates the "validate" command.
func ValidateCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that both APIs accept the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(env, cmd, func(a *app) error {
				status := a.runner.Validate(cmd.Context())
				fmt.Fprintf(env.Stdout, "attendance: %s\n", verdict(status.Attendance))
				fmt.Fprintf(env.Stdout, "chat:       %s\n", verdict(status.Chat))
				if !status.Ready() {
					return ErrCredentialsRejected
				}
				return nil
			})
		},
	}
}

func verdict(ok bool) string {
	if ok {
		return "ok"
	}
	return "invalid"
}

// SetupCmd creates the "setup" command with one subcommand per API.
func SetupCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Store API credentials",
		Long: `Store API credentials in the credentials file (CHECKIN_CREDENTIALS_FILE).

Setup is complete once both the attendance and the chat keys are stored.`,
	}
	cmd.AddCommand(setupAttendanceCmd(env))
	cmd.AddCommand(setupChatCmd(env))
	return cmd
}

func setupAttendanceCmd(env *Env) *cobra.Command {
	var keys credentials.AttendanceKeys

	cmd := &cobra.Command{
		Use:     "attendance",
		Short:   "Store Zoho People keys",
		Example: `  checkin setup attendance --access-token 1000.abc --client-id 1000.XYZ`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateAttendanceKeys(keys); err != nil {
				return err
			}
			return withApp(env, cmd, func(a *app) error {
				if err := a.store.SetAttendanceKeys(cmd.Context(), keys); err != nil {
					return err
				}
				a.logger.Debug("Stored attendance keys",
					logging.Secret("access_token", keys.AccessToken),
					zap.Bool("refresh_token", keys.RefreshToken != ""))
				return finishSetup(env, a, cmd, "attendance")
			})
		},
	}

	cmd.Flags().StringVar(&keys.AccessToken, "access-token", "", "OAuth access token")
	cmd.Flags().StringVar(&keys.ClientID, "client-id", "", "OAuth client ID")
	cmd.Flags().StringVar(&keys.ClientSecret, "client-secret", "", "OAuth client secret")
	cmd.Flags().StringVar(&keys.RefreshToken, "refresh-token", "", "OAuth refresh token")
	_ = cmd.MarkFlagRequired("access-token")

	return cmd
}

func setupChatCmd(env *Env) *cobra.Command {
	var keys credentials.ChatKeys

	cmd := &cobra.Command{
		Use:     "chat",
		Short:   "Store Basecamp keys and project",
		Example: `  checkin setup chat --access-token BAhb... --account-id 999999 --project-id 42`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateChatKeys(keys); err != nil {
				return err
			}
			return withApp(env, cmd, func(a *app) error {
				if err := a.store.SetChatKeys(cmd.Context(), keys); err != nil {
					return err
				}
				a.logger.Debug("Stored chat keys",
					logging.Secret("access_token", keys.AccessToken),
					zap.String("account_id", keys.AccountID),
					zap.String("project_id", keys.ProjectID))
				return finishSetup(env, a, cmd, "chat")
			})
		},
	}

	cmd.Flags().StringVar(&keys.AccessToken, "access-token", "", "OAuth access token")
	cmd.Flags().StringVar(&keys.AccountID, "account-id", "", "Basecamp account ID")
	cmd.Flags().StringVar(&keys.ProjectID, "project-id", "", "Basecamp project ID")
	cmd.Flags().StringVar(&keys.CampfireID, "campfire-id", "", "Basecamp campfire ID")
	_ = cmd.MarkFlagRequired("access-token")
	_ = cmd.MarkFlagRequired("account-id")
	_ = cmd.MarkFlagRequired("project-id")

	return cmd
}

func validateAttendanceKeys(k credentials.AttendanceKeys) error {
	if err := utils.ValidateToken(k.AccessToken, "access-token", true); err != nil {
		return err
	}
	if err := utils.ValidateToken(k.RefreshToken, "refresh-token", false); err != nil {
		return err
	}
	if err := utils.ValidateString(k.ClientID, "client-id", utils.MaxTokenLength, false); err != nil {
		return err
	}
	return utils.ValidateString(k.ClientSecret, "client-secret", utils.MaxTokenLength, false)
}

func validateChatKeys(k credentials.ChatKeys) error {
	if err := utils.ValidateToken(k.AccessToken, "access-token", true); err != nil {
		return err
	}
	if err := utils.ValidateID(k.AccountID, "account-id", true); err != nil {
		return err
	}
	if err := utils.ValidateID(k.ProjectID, "project-id", true); err != nil {
		return err
	}
	return utils.ValidateID(k.CampfireID, "campfire-id", false)
}

// finishSetup marks setup complete once both bundles are present
func finishSetup(env *Env, a *app, cmd *cobra.Command, name string) error {
	ctx := cmd.Context()
	fmt.Fprintf(env.Stderr, "Saved %s keys to %s\n", name, a.cfg.Credentials.File)

	attendanceKeys, err := a.store.AttendanceKeys(ctx)
	if err != nil {
		return err
	}
	chatKeys, err := a.store.ChatKeys(ctx)
	if err != nil {
		return err
	}
	if attendanceKeys == nil || chatKeys == nil {
		return nil
	}

	if err := a.store.SetSetupComplete(ctx, true); err != nil {
		return err
	}
	fmt.Fprintln(env.Stderr, "Setup complete")
	return nil
}

// ResetCmd creates the "reset" command.
func ResetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete all stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(env, cmd, func(a *app) error {
				if err := a.store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(env.Stderr, "Credentials cleared")
				return nil
			})
		},
	}
}
