package settingsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/blinkhub/internal/datastore"
	"github.com/rzbill/blinkhub/internal/runtime"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

const maxKeyLen = 512

var (
	ErrNotFound      = errors.New("setting not found")
	ErrInvalidKey    = errors.New("invalid setting key")
	ErrInvalidFilter = errors.New("invalid filter expression")
)

// Service reads and writes plain key/value settings.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{})))
}

func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	return &Service{rt: rt, logger: logger}
}

// ValidateKey rejects empty keys, keys with NUL bytes and oversized keys.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	case len(key) > maxKeyLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidKey, maxKeyLen)
	case strings.ContainsRune(key, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidKey)
	}
	return nil
}

// All returns every stored record.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	return datastore.GetAllRecords(ctx, s.rt.DB())
}

// ByPrefix returns the records whose key starts with prefix.
func (s *Service) ByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	return datastore.GetRecordsByPrefix(ctx, s.rt.DB(), prefix)
}

// Match returns the records accepted by a CEL expression over key, value
// and json. When prefix is set, only keys under it are considered.
func (s *Service) Match(ctx context.Context, prefix, expr string) (map[string]string, error) {
	pred, err := datastore.CompileFilter(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if prefix != "" {
		inPrefix := datastore.HasPrefix(prefix)
		match := pred
		pred = func(k, v []byte) bool { return inPrefix(k, v) && match(k, v) }
	}
	return datastore.GetRecords(ctx, s.rt.DB(), pred)
}

// Get returns the value stored under key.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	b, err := s.rt.DB().Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(b), nil
}

// Put stores value under key, replacing any previous value.
func (s *Service) Put(ctx context.Context, key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.rt.DB().Set([]byte(key), []byte(value)); err != nil {
		return err
	}
	s.logger.Debug("setting saved", logpkg.Str("key", key), logpkg.Int("bytes", len(value)))
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := s.rt.DB().Delete([]byte(key)); err != nil {
		return err
	}
	s.logger.Debug("setting deleted", logpkg.Str("key", key))
	return nil
}
