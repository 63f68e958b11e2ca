package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	cfgpkg "github.com/rzbill/blinkhub/internal/config"
	"github.com/rzbill/blinkhub/internal/metrics"
	"github.com/rzbill/blinkhub/internal/runtime"
	grpcserver "github.com/rzbill/blinkhub/internal/server/grpc"
	httpserver "github.com/rzbill/blinkhub/internal/server/http"
	chatsvc "github.com/rzbill/blinkhub/internal/services/chat"
	motionsvc "github.com/rzbill/blinkhub/internal/services/motion"
	settingsvc "github.com/rzbill/blinkhub/internal/services/settings"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	// Logger overrides the logger built from Config.Log.
	Logger logpkg.Logger
	// Connector is the chat backend. Defaults to a connector that only logs.
	Connector chatsvc.Connector
}

// StoreDir is where the Pebble store lives under a data dir.
func StoreDir(dataDir string) string { return filepath.Join(dataDir, "store") }

// NewLogger builds the process logger from cfg, falling back to info/text
// when cfg is invalid.
func NewLogger(cfg cfgpkg.Log) logpkg.Logger {
	lc := &logpkg.Config{Level: cfg.Level, Format: cfg.Format, Redact: cfg.Redact}
	l, err := logpkg.ApplyConfig(lc)
	if err != nil {
		lvl := logpkg.InfoLevel
		if parsed, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = parsed
		}
		l = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
		l.Warn("invalid log config, using defaults", logpkg.Err(err))
	}
	return l
}

// Run starts gRPC and HTTP servers and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = NewLogger(opts.Config.Log)
	}
	// Pebble logs through the stdlib logger.
	logpkg.RedirectStdLog(procLogger)

	m := metrics.New()
	rt, err := runtime.Open(runtime.Options{
		DataDir:       StoreDir(opts.DataDir),
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       m,
		Config:        opts.Config,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting blinkhub server",
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("fsync", opts.Fsync.String()),
		logpkg.Int("retain_snapshots", opts.Config.Motion.RetainSnapshots),
	)

	settings := settingsvc.NewWithLogger(rt, procLogger.With(logpkg.Component("settings")))
	chat := chatsvc.New(rt, chatsvc.Options{
		Connector:     opts.Connector,
		RatePerMinute: opts.Config.Notify.RatePerMinute,
		Burst:         opts.Config.Notify.Burst,
		Logger:        procLogger.With(logpkg.Component("chat")),
	})
	motion, err := motionsvc.New(rt, motionsvc.Options{
		Prefix:   opts.Config.Motion.SnapshotPrefix,
		Retain:   opts.Config.Motion.RetainSnapshots,
		Notifier: chat,
		Observer: m,
		Logger:   procLogger.With(logpkg.Component("motion")),
	})
	if err != nil {
		return err
	}

	// Reconnect on boot when a token was saved earlier.
	if _, err := chat.Token(sctx); err == nil {
		if err := chat.Connect(sctx); err != nil {
			procLogger.Warn("chat auto-connect failed", logpkg.Err(err))
		}
	}

	gsrv := grpcserver.New(rt, procLogger)
	hsrv := httpserver.New(rt, procLogger, httpserver.Services{
		Settings: settings,
		Chat:     chat,
		Motion:   motion,
		Metrics:  m,
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("grpc server failed", logpkg.Err(err))
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			stop()
		}
	}()

	<-sctx.Done()
	// Servers stop before the deferred runtime close so no handler touches a closed DB.
	gsrv.Close()
	hsrv.Close()
	wg.Wait()
	if err := chat.Disconnect(context.Background()); err != nil {
		procLogger.Warn("chat disconnect failed", logpkg.Err(err))
	}
	procLogger.Info("blinkhub server stopped")
	return nil
}
