package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/decisionstack/decisionstack/agent/internal/config"
)

// Execute runs the decide root command against os.Args.
func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the decide command tree. The --log-level flag applies to
// every subcommand.
func NewRoot() *cobra.Command {
	var level string
	root := &cobra.Command{
		Use:           "decide",
		Short:         "Decision readiness scoring for metric datasets",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := config.ParseLogLevel(level)
			if err != nil {
				return err
			}
			setupLogging(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&level, "log-level", "info", "log level: debug|info|warn|error")
	root.AddCommand(
		EvaluateCmd(),
		WatchCmd(),
	)
	return root
}

// logLevel backs the default handler so watch can change it on reload.
var logLevel = new(slog.LevelVar)

func setupLogging(lvl slog.Level) {
	logLevel.Set(lvl)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
