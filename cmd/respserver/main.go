package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ananthvk/simpleredis"
	"github.com/ananthvk/simpleredis/cmd/respserver/internal"
	"github.com/ananthvk/simpleredis/internal/config"
	"github.com/ananthvk/simpleredis/internal/metrics"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

// Set via ldflags.
var version = "dev"

func main() {
	if err := newApp(afero.NewOsFs()).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(fs afero.Fs) *cli.App {
	return &cli.App{
		Name:    "respserver",
		Usage:   "in-memory key-value server speaking RESP2/RESP3",
		Version: version,
		Flags:   flags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c, fs)
			if err != nil {
				return err
			}
			return run(c.Context, cfg)
		},
	}
}

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to a TOML configuration file",
			EnvVars: []string{"SIMPLEREDIS_CONFIG"},
		},
		&cli.StringFlag{Name: "host", Usage: "bind address"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "port on which to listen"},
		&cli.StringFlag{Name: "metrics-addr", Usage: "address of the Prometheus endpoint, empty disables it"},
		&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		&cli.StringFlag{Name: "log-format", Usage: "text or json"},
		&cli.IntFlag{Name: "shard-count", Usage: "number of backend shards, a power of two"},
		&cli.IntFlag{Name: "max-commands-per-second", Usage: "per-connection command limit, 0 disables it"},
		&cli.IntFlag{Name: "max-request-size", Usage: "largest request frame in bytes, larger requests close the connection"},
	}
}

// loadConfig reads the optional config file and overlays the flags that were set explicitly.
func loadConfig(c *cli.Context, fs afero.Fs) (config.Config, error) {
	cfg, err := config.Load(fs, c.String("config"))
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("host") {
		cfg.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Port = c.Int("port")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.LogFormat = c.String("log-format")
	}
	if c.IsSet("shard-count") {
		cfg.ShardCount = c.Int("shard-count")
	}
	if c.IsSet("max-commands-per-second") {
		cfg.MaxCommandsPerSecond = c.Int("max-commands-per-second")
	}
	if c.IsSet("max-request-size") {
		cfg.MaxRequestSize = c.Int("max-request-size")
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := newLogger(cfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("metrics listening", "address", cfg.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	listenerConfig := net.ListenConfig{}
	listener, err := listenerConfig.Listen(ctx, "tcp", cfg.Address())
	if err != nil {
		return fmt.Errorf("listen failed: %w", err)
	}

	backend := simpleredis.NewBackend(simpleredis.WithShardCount(cfg.ShardCount))
	server := internal.NewServer(backend, internal.Options{
		Logger:               logger,
		Metrics:              m,
		MaxCommandsPerSecond: cfg.MaxCommandsPerSecond,
		ReadBufferSize:       cfg.ReadBufferSize,
		MaxRequestSize:       cfg.MaxRequestSize,
	})
	err = server.Serve(ctx, listener)
	logger.Info("server stopped", "keys", backend.Len())
	return err
}
