package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Motion.SnapshotPrefix != "motion.snapshots." {
		t.Fatalf("snapshot prefix default: %q", cfg.Motion.SnapshotPrefix)
	}
	if cfg.Motion.RetainSnapshots != 5 {
		t.Fatalf("retain default: %d", cfg.Motion.RetainSnapshots)
	}
	if cfg.Fsync != "always" {
		t.Fatalf("fsync default: %q", cfg.Fsync)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "blinkhub.json")
	data := []byte(`{"httpAddr":":9090","fsync":"interval","motion":{"retainSnapshots":10}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr: %q", cfg.HTTPAddr)
	}
	if cfg.Fsync != "interval" {
		t.Fatalf("fsync: %q", cfg.Fsync)
	}
	if cfg.Motion.RetainSnapshots != 10 {
		t.Fatalf("retain: %d", cfg.Motion.RetainSnapshots)
	}
	if cfg.Motion.SnapshotPrefix != "motion.snapshots." {
		t.Fatalf("unset fields should keep defaults, got %q", cfg.Motion.SnapshotPrefix)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "blinkhub.yaml")
	data := []byte("grpcAddr: \":6000\"\nlog:\n  level: debug\n  format: json\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPCAddr != ":6000" {
		t.Fatalf("grpc addr: %q", cfg.GRPCAddr)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log: %+v", cfg.Log)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != Default().HTTPAddr {
		t.Fatalf("expected defaults")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("BLINKHUB_HTTP", ":7070")
	t.Setenv("BLINKHUB_MOTION_RETAIN_SNAPSHOTS", "3")
	t.Setenv("BLINKHUB_LOG_REDACT", "token, password")
	t.Setenv("BLINKHUB_NOTIFY_BURST", "not-a-number")
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":7070" {
		t.Fatalf("env override http")
	}
	if cfg.Motion.RetainSnapshots != 3 {
		t.Fatalf("env override retain")
	}
	if len(cfg.Log.Redact) != 2 || cfg.Log.Redact[1] != "password" {
		t.Fatalf("env override redact: %v", cfg.Log.Redact)
	}
	if cfg.Notify.Burst != Default().Notify.Burst {
		t.Fatalf("invalid number should be ignored")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Fsync = "sometimes"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected fsync error")
	}
	for _, prefix := range []string{"", "motion.", "motion", "slack.", "m"} {
		cfg = Default()
		cfg.Motion.SnapshotPrefix = prefix
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected prefix error for %q", prefix)
		}
	}
	for _, prefix := range []string{"motion.snapshots.", "motion.snapshots.porch."} {
		cfg = Default()
		cfg.Motion.SnapshotPrefix = prefix
		if err := cfg.Validate(); err != nil {
			t.Fatalf("prefix %q: %v", prefix, err)
		}
	}
}
