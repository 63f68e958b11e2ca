// Package config provides loading and environment overlay for blinkhub
// configuration. Default() is the baseline, Load reads a JSON/YAML/TOML file
// on top of it and FromEnv overlays BLINKHUB_* variables.
//
//	cfg, err := config.Load("/etc/blinkhub.yaml")
//	if err != nil { /* handle */ }
//	config.FromEnv(&cfg)
//	if err := cfg.Validate(); err != nil { /* handle */ }
package config
