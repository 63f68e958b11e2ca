package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/rzbill/blinkhub/internal/cmd/client"
	serverrun "github.com/rzbill/blinkhub/internal/cmd/server"
	cfgpkg "github.com/rzbill/blinkhub/internal/config"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// CLI logger; `server start` builds its own from config.
	level, err := logpkg.ParseLevel(os.Getenv("BLINKHUB_LOG_LEVEL"))
	if err != nil {
		level = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(level),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:           "blinkhub",
		Short:         "blinkhub home-automation hub",
		Long:          "blinkhub keeps dashboard settings and motion snapshots in an embedded store and serves them over HTTP and gRPC.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start blinkhub server (gRPC and HTTP)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)
			applyServerFlags(cmd, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			mode, err := pebblestore.ParseFsyncMode(cfg.Fsync)
			if err != nil {
				return fmt.Errorf("invalid --fsync: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       cfg.DataDir,
				GRPCAddr:      cfg.GRPCAddr,
				HTTPAddr:      cfg.HTTPAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(cfg.FsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	f := serverStartCmd.Flags()
	f.String("config", os.Getenv("BLINKHUB_CONFIG"), "Config file (json, yaml or toml)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("grpc", "", "gRPC listen address (default :50051)")
	f.String("http", "", "HTTP listen address (default :8080)")
	f.String("fsync", "", "Fsync mode: always|interval|never")
	f.Int("fsync-interval-ms", 0, "When --fsync=interval, group-commit window in ms (default 5)")
	f.String("log-level", "", "Log level: debug|info|warn|error")
	f.String("log-format", "", "Log format: text|json (default text)")
	f.Int("retain-snapshots", 0, "Motion snapshots kept after each trim (default 5)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	clientcmd.AddCommands(rootCmd, apiURL)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", logpkg.Err(err))
		os.Exit(1)
	}
}

// applyServerFlags overrides cfg with flags the user set explicitly.
func applyServerFlags(cmd *cobra.Command, cfg *cfgpkg.Config) {
	f := cmd.Flags()
	str := func(name string, dst *string) {
		if f.Changed(name) {
			*dst, _ = f.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if f.Changed(name) {
			*dst, _ = f.GetInt(name)
		}
	}
	str("data-dir", &cfg.DataDir)
	str("grpc", &cfg.GRPCAddr)
	str("http", &cfg.HTTPAddr)
	str("fsync", &cfg.Fsync)
	num("fsync-interval-ms", &cfg.FsyncIntervalMs)
	str("log-level", &cfg.Log.Level)
	str("log-format", &cfg.Log.Format)
	num("retain-snapshots", &cfg.Motion.RetainSnapshots)
}

func apiURL() string {
	if v := os.Getenv("BLINKHUB_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
