package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/decisionstack/decisionstack/agent/internal/config"
	"github.com/decisionstack/decisionstack/agent/internal/monitor"
	"github.com/decisionstack/decisionstack/agent/internal/shipper"
	"github.com/decisionstack/decisionstack/pkg/types"
)

// WatchCmd runs the agent loop from a config file until interrupted.
func WatchCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Evaluate configured sources on an interval and ship reports to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runWatch(ctx, configPath, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to config file")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file with secrets (missing file is ignored)")
	return cmd
}

// loadEnv loads secrets from a dotenv file without overriding variables
// already set in the environment.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func runWatch(ctx context.Context, configPath string, stdout io.Writer) error {
	slog.Info("decide-agent starting", "config", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyLogLevel(cfg.Agent.LogLevel)
	slog.Info("config loaded",
		"server_endpoint", cfg.Agent.ServerEndpoint,
		"sources", len(cfg.Agent.Sources),
		"evaluate_interval", cfg.Agent.EvaluateInterval,
	)

	var out monitor.Reporter
	if cfg.Agent.ServerEndpoint != "" {
		ship, err := shipper.New(cfg.Agent)
		if err != nil {
			return err
		}
		go ship.Run(ctx)
		out = ship
	} else {
		slog.Warn("no server_endpoint configured, printing reports to stdout")
		out = printReporter(stdout)
	}

	mon := monitor.New(cfg.Agent, out)

	go func() {
		if err := config.Watch(ctx, configPath, func(updated *config.Config) {
			applyLogLevel(updated.Agent.LogLevel)
			mon.Reload(updated.Agent)
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	mon.Run(ctx)
	slog.Info("decide-agent shutting down")
	return nil
}

func applyLogLevel(s string) {
	if lvl, err := config.ParseLogLevel(s); err == nil {
		logLevel.Set(lvl)
	}
}

// printReporter writes each report as one JSON line.
func printReporter(w io.Writer) monitor.Reporter {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return monitor.ReporterFunc(func(r types.Report) {
		mu.Lock()
		defer mu.Unlock()
		if err := enc.Encode(r); err != nil {
			slog.Error("watch: write report", "source", r.SourceID, "err", err)
		}
	})
}
