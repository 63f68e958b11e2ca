package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Config is a declarative logger description.
type Config struct {
	// Level is one of debug|info|warn|error.
	Level string `json:"level" mapstructure:"level"`
	// Format is text or json.
	Format string `json:"format" mapstructure:"format"`
	// Outputs lists console, null or file:<path>. Defaults to console.
	Outputs []string `json:"outputs" mapstructure:"outputs"`
	// Redact lists field keys whose values are replaced with [REDACTED].
	Redact []string `json:"redact" mapstructure:"redact"`
	// SampleInitial/SampleThereafter enable per-message sampling when SampleThereafter > 0.
	SampleInitial    int `json:"sampleInitial" mapstructure:"sampleInitial"`
	SampleThereafter int `json:"sampleThereafter" mapstructure:"sampleThereafter"`
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		formatter = &TextFormatter{}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("log: unknown format %q", cfg.Format)
	}

	opts := []LoggerOption{WithLevel(level), WithFormatter(formatter)}
	for _, spec := range cfg.Outputs {
		switch {
		case spec == "" || spec == "console":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case spec == "null":
			opts = append(opts, WithOutput(NullOutput{}))
		case strings.HasPrefix(spec, "file:"):
			fo, err := NewFileOutput(strings.TrimPrefix(spec, "file:"))
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithOutput(fo))
		default:
			return nil, fmt.Errorf("log: unknown output %q", spec)
		}
	}

	l := NewLogger(opts...).(*BaseLogger)
	h := newBridgeHandler(l).withRedactions(cfg.Redact).withSampler(cfg.SampleInitial, cfg.SampleThereafter)
	l.slogLogger = slog.New(h)
	return l, nil
}
