package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays BLINKHUB_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("BLINKHUB_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("BLINKHUB_HTTP"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("BLINKHUB_GRPC"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("BLINKHUB_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("BLINKHUB_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("BLINKHUB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BLINKHUB_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BLINKHUB_LOG_REDACT"); v != "" {
		cfg.Log.Redact = splitList(v)
	}
	if v := os.Getenv("BLINKHUB_MOTION_SNAPSHOT_PREFIX"); v != "" {
		cfg.Motion.SnapshotPrefix = v
	}
	if v := os.Getenv("BLINKHUB_MOTION_RETAIN_SNAPSHOTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Motion.RetainSnapshots = n
		}
	}
	if v := os.Getenv("BLINKHUB_NOTIFY_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Notify.RatePerMinute = n
		}
	}
	if v := os.Getenv("BLINKHUB_NOTIFY_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Notify.Burst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
