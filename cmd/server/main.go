package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/contactbook/internal/audit"
	"github.com/me/contactbook/internal/config"
	"github.com/me/contactbook/internal/lockout"
	"github.com/me/contactbook/internal/logging"
	"github.com/me/contactbook/internal/metrics"
	"github.com/me/contactbook/internal/server"
	"github.com/me/contactbook/pkg/contactapi"
)

func main() {
	configFile := flag.String("config", "", "Path to a YAML config file (CONTACTBOOK_* env vars apply either way)")
	addr := flag.String("addr", "", "Listen address (overrides config)")
	apiURL := flag.String("api-url", "", "Remote API base URL (overrides config)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "Log format (text, json)")
	staticDir := flag.String("static", "web/assets", "Directory served under /static/")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		fmt.Fprintln(flag.CommandLine.Output(), "\nEnvironment:")
		fmt.Fprintln(flag.CommandLine.Output(), config.Usage())
	}
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Open the audit store and run migrations.
	st, err := audit.NewSQLiteStore(cfg.Audit.DBPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate audit database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("audit database ready", "path", cfg.Audit.DBPath)

	policy := lockout.Policy{MaxFailures: cfg.Lockout.MaxFailures, Duration: cfg.Lockout.Duration}
	var limiter lockout.Limiter = lockout.NewMemory(policy)
	if cfg.Lockout.RedisURL != "" {
		rl, err := lockout.NewRedis(cfg.Lockout.RedisURL, policy)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lockout: %v\n", err)
			os.Exit(1)
		}
		defer rl.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = rl.Ping(pingCtx)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "lockout: redis unreachable: %v\n", err)
			os.Exit(1)
		}
		limiter = rl
		logger.Info("lockout counters in redis")
	}

	apiCfg := contactapi.DefaultConfig().
		WithBaseURL(cfg.API.BaseURL).
		WithTimeout(cfg.API.Timeout).
		WithRetries(cfg.API.MaxRetries, contactapi.DefaultRetryDelay)
	apiCfg.InsecureSkipVerify = cfg.API.InsecureSkipVerify
	api := contactapi.NewClient(apiCfg, logger)
	logger.Info("remote api", "url", cfg.API.BaseURL)

	serverOpts := []server.Option{
		server.WithAudit(st),
		server.WithLockout(limiter),
		server.WithStaticDir(*staticDir),
	}
	if !cfg.DisableMetrics {
		serverOpts = append(serverOpts, server.WithMetrics(metrics.New()))
	}

	srv := server.New(cfg, api, logger, serverOpts...)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv.StartAuditPruner(ctx, server.DefaultPruneInterval)

	go func() {
		logger.Info("server starting", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
