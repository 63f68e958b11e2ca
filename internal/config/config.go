package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	DataDir  string `json:"dataDir" mapstructure:"dataDir"`
	HTTPAddr string `json:"httpAddr" mapstructure:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" mapstructure:"grpcAddr"`
	// Fsync is always|interval|never.
	Fsync           string `json:"fsync" mapstructure:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" mapstructure:"fsyncIntervalMs"`
	Log             Log    `json:"log" mapstructure:"log"`
	Motion          Motion `json:"motion" mapstructure:"motion"`
	Notify          Notify `json:"notify" mapstructure:"notify"`
}

// Log mirrors pkg/log.Config.
type Log struct {
	Level  string   `json:"level" mapstructure:"level"`
	Format string   `json:"format" mapstructure:"format"`
	Redact []string `json:"redact" mapstructure:"redact"`
}

// Motion configures the snapshot relay.
type Motion struct {
	// SnapshotPrefix is the key prefix snapshot records are written under.
	SnapshotPrefix string `json:"snapshotPrefix" mapstructure:"snapshotPrefix"`
	// RetainSnapshots is how many snapshot records survive a trim.
	RetainSnapshots int `json:"retainSnapshots" mapstructure:"retainSnapshots"`
}

// Notify throttles outgoing chat notifications.
type Notify struct {
	RatePerMinute int `json:"ratePerMinute" mapstructure:"ratePerMinute"`
	Burst         int `json:"burst" mapstructure:"burst"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		GRPCAddr:        ":50051",
		Fsync:           "always",
		FsyncIntervalMs: 5,
		Log: Log{
			Level:  "info",
			Format: "text",
			Redact: []string{"token"},
		},
		Motion: Motion{
			SnapshotPrefix:  "motion.snapshots.",
			RetainSnapshots: 5,
		},
		Notify: Notify{
			RatePerMinute: 12,
			Burst:         3,
		},
	}
}

// Load reads configuration from a JSON, YAML or TOML file (by extension) on
// top of Default(). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".yaml", ".yml", ".toml":
	case "":
		v.SetConfigType("json")
	default:
		return Config{}, fmt.Errorf("config: unsupported file type %q", ext)
	}
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports settings that would prevent the server from starting.
func (c Config) Validate() error {
	switch c.Fsync {
	case "always", "interval", "never":
	default:
		return fmt.Errorf("config: invalid fsync %q; use always|interval|never", c.Fsync)
	}
	if err := ValidateSnapshotPrefix(c.Motion.SnapshotPrefix); err != nil {
		return err
	}
	if c.Motion.RetainSnapshots < 0 {
		return fmt.Errorf("config: motion.retainSnapshots must be >= 0")
	}
	if c.Notify.RatePerMinute < 0 || c.Notify.Burst < 0 {
		return fmt.Errorf("config: notify limits must be >= 0")
	}
	return nil
}

// SnapshotNamespace is the key namespace snapshot prefixes must live under.
// Retention trims delete everything below the prefix, so it may not reach the
// motion source keys (motion.url, motion.name) or the chat keys (slack.*).
const SnapshotNamespace = "motion.snapshots"

// ValidateSnapshotPrefix rejects snapshot prefixes outside SnapshotNamespace.
func ValidateSnapshotPrefix(prefix string) error {
	if !strings.HasPrefix(prefix, SnapshotNamespace) {
		return fmt.Errorf("config: motion.snapshotPrefix %q must start with %q", prefix, SnapshotNamespace)
	}
	return nil
}
