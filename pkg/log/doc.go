// Package log provides blinkhub's structured logging facade.
//
// The Logger interface exposes leveled methods and a small Field type for
// structured context. It is backed by log/slog through a bridge handler that
// feeds our formatter and outputs, so redaction and sampling live in one place.
//
//	l, _ := log.ApplyConfig(&log.Config{Level: "info", Format: "text"})
//	l = l.With(log.Component("motion"))
//	l.Info("snapshot recorded", log.Str("key", key), log.Int("trimmed", n))
//
// RedirectStdLog routes the standard library logger (used by Pebble) through
// a Logger so that storage messages share the same format.
package log
