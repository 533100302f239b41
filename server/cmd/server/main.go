package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/decisionstack/decisionstack/server/internal/alerts"
	"github.com/decisionstack/decisionstack/server/internal/api"
	"github.com/decisionstack/decisionstack/server/internal/auth"
	"github.com/decisionstack/decisionstack/server/internal/config"
	"github.com/decisionstack/decisionstack/server/internal/receiver"
	"github.com/decisionstack/decisionstack/server/internal/store"
	"github.com/decisionstack/decisionstack/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	envFile := flag.String("env-file", ".env", "dotenv file with API keys and webhook URLs; ignored if missing")
	uiDir := flag.String("ui-dir", "", "serve dashboard static files from this directory; leave empty to disable")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("decisionstack-server starting", "config", *configPath)

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load env file", "path", *envFile, "err", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	lvl, _ := config.ParseLogLevel(cfg.Server.LogLevel) // validated by Load
	level.Set(lvl)

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"snapshot_ttl", cfg.Server.Snapshot.TTL,
		"alert_rules", len(cfg.Server.Alerts.Rules),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Report store with background TTL eviction.
	st := store.New(cfg.Server.Snapshot.TTL)
	go st.Run(ctx)

	// Alerts engine: evaluates rules on every incoming report.
	alertEngine, err := alerts.New(cfg.Server.Alerts)
	if err != nil {
		slog.Error("failed to build alert rules", "err", err)
		os.Exit(1)
	}

	apiHandler := api.New(st, api.Options{
		Alerts:          alertEngine,
		Ingest:          receiver.New(st, alertEngine, cfg.Server.MaxBodyBytes),
		EvaluateLimiter: rate.NewLimiter(rate.Limit(cfg.Server.RateLimit.EvaluatePerSec), cfg.Server.RateLimit.Burst),
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
	})
	requireKey := auth.APIKey(
		cfg.Server.Auth.Mode,
		cfg.Server.Auth.EffectiveHeader(),
		cfg.Server.Auth.Key(),
	)
	if cfg.Server.Auth.Mode == "apikey" && cfg.Server.Auth.Key() == "" {
		slog.Warn("auth mode is apikey but no key is set; API is open", "key_env", cfg.Server.Auth.KeyEnv)
	}

	// WebSocket hub: broadcasts the decision snapshot to dashboards.
	hub := ws.New(st, alertEngine, cfg.Server.BroadcastInterval)
	go hub.Run(ctx)

	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", requireKey(apiHandler))
	httpMux.Handle("/metrics", apiHandler)
	httpMux.Handle("/ws/stream", hub)

	// Optional: serve a pre-built dashboard from a local directory.
	// The "/" catch-all serves index.html for any unknown path (SPA routing).
	if *uiDir != "" {
		files := http.FileServer(http.Dir(*uiDir))
		httpMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			path := *uiDir + r.URL.Path
			if _, err := os.Stat(path); os.IsNotExist(err) {
				http.ServeFile(w, r, *uiDir+"/index.html")
				return
			}
			files.ServeHTTP(w, r)
		})
		slog.Info("serving dashboard static files", "dir", *uiDir)
	}

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           httpMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("decisionstack-server shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck
	alertEngine.Wait()
}
