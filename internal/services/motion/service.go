package motionsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	cfgpkg "github.com/rzbill/blinkhub/internal/config"
	"github.com/rzbill/blinkhub/internal/datastore"
	"github.com/rzbill/blinkhub/internal/runtime"
	pebblestore "github.com/rzbill/blinkhub/internal/storage/pebble"
	"github.com/rzbill/blinkhub/pkg/id"
	logpkg "github.com/rzbill/blinkhub/pkg/log"
)

const (
	KeySourceURL  = "motion.url"
	KeySourceName = "motion.name"
)

var (
	ErrInvalidURL    = errors.New("invalid snapshot url")
	ErrNotConfigured = errors.New("motion source not configured")
)

// Source is the configured motion camera.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Snapshot is one relayed snapshot record.
type Snapshot struct {
	ID   string    `json:"id"`
	Key  string    `json:"key"`
	URL  string    `json:"url"`
	Time time.Time `json:"time"`
}

type snapshotRecord struct {
	URL  string `json:"url"`
	TsMs int64  `json:"ts_ms"`
}

// Notifier is told about new snapshots. Failures are logged, not returned.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Observer receives snapshot and trim counts.
type Observer interface {
	IncSnapshots()
	ObserveTrim(deleted int)
}

// Options tune the service.
type Options struct {
	// Prefix snapshot keys are written under. Defaults to "motion.snapshots."
	// and must stay inside cfgpkg.SnapshotNamespace so trims never reach the
	// source or chat keys.
	Prefix string
	// Retain is the trim window. Defaults to datastore.RetainCount.
	Retain   int
	Notifier Notifier
	Observer Observer
	Logger   logpkg.Logger
}

// Service stores the motion source and relays snapshot URLs, keeping only
// the most recent ones.
type Service struct {
	rt       *runtime.Runtime
	ids      *id.Generator
	prefix   string
	retain   int
	notifier Notifier
	observer Observer
	logger   logpkg.Logger

	// trimMu serializes write+trim so concurrent recorders never race on
	// the same key set. It also guards seeded.
	trimMu sync.Mutex
	seeded bool
}

func New(rt *runtime.Runtime, opts Options) (*Service, error) {
	if opts.Prefix == "" {
		opts.Prefix = cfgpkg.SnapshotNamespace + "."
	}
	if err := cfgpkg.ValidateSnapshotPrefix(opts.Prefix); err != nil {
		return nil, err
	}
	if opts.Retain <= 0 {
		opts.Retain = datastore.RetainCount
	}
	if opts.Logger == nil {
		opts.Logger = logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{}))
	}
	return &Service{
		rt:       rt,
		ids:      id.NewGenerator(),
		prefix:   opts.Prefix,
		retain:   opts.Retain,
		notifier: opts.Notifier,
		observer: opts.Observer,
		logger:   opts.Logger,
	}, nil
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}

// SaveSource persists the camera nickname and snapshot URL.
func (s *Service) SaveSource(ctx context.Context, src Source) error {
	if err := ValidateURL(src.URL); err != nil {
		return err
	}
	b := s.rt.DB().NewBatch()
	defer b.Close()
	if err := b.Set([]byte(KeySourceURL), []byte(strings.TrimSpace(src.URL)), nil); err != nil {
		return err
	}
	if err := b.Set([]byte(KeySourceName), []byte(strings.TrimSpace(src.Name)), nil); err != nil {
		return err
	}
	if err := s.rt.DB().CommitBatch(ctx, b); err != nil {
		return err
	}
	s.logger.Info("motion source saved", logpkg.Str("name", src.Name), logpkg.Str("url", src.URL))
	return nil
}

// Source returns the configured camera or ErrNotConfigured.
func (s *Service) Source(ctx context.Context) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	rawURL, err := s.rt.DB().Get([]byte(KeySourceURL))
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
		return Source{}, ErrNotConfigured
	case err != nil:
		return Source{}, &datastore.StoreReadError{Op: "get " + KeySourceURL, Err: err}
	case len(rawURL) == 0:
		return Source{}, ErrNotConfigured
	}
	name, err := s.rt.DB().Get([]byte(KeySourceName))
	if err != nil && !errors.Is(err, pebblestore.ErrNotFound) {
		return Source{}, &datastore.StoreReadError{Op: "get " + KeySourceName, Err: err}
	}
	return Source{Name: string(name), URL: string(rawURL)}, nil
}

// RecordSnapshot stores a snapshot URL under a time-ordered key, trims the
// prefix down to the retention window and notifies the chat target.
func (s *Service) RecordSnapshot(ctx context.Context, snapshotURL string) (Snapshot, error) {
	if err := ValidateURL(snapshotURL); err != nil {
		return Snapshot{}, err
	}
	snapshotURL = strings.TrimSpace(snapshotURL)

	s.trimMu.Lock()
	if err := s.seedLocked(ctx); err != nil {
		s.trimMu.Unlock()
		return Snapshot{}, err
	}
	sid := s.ids.Next()
	snap := Snapshot{ID: sid.String(), Key: s.prefix + sid.String(), URL: snapshotURL, Time: sid.Time()}
	val, err := json.Marshal(snapshotRecord{URL: snapshotURL, TsMs: snap.Time.UnixMilli()})
	if err != nil {
		s.trimMu.Unlock()
		return Snapshot{}, err
	}
	if err := s.rt.DB().Set([]byte(snap.Key), val); err != nil {
		s.trimMu.Unlock()
		return Snapshot{}, err
	}
	deleted, err := datastore.TrimByPrefixN(ctx, s.rt.DB(), s.prefix, s.retain)
	s.trimMu.Unlock()

	if s.observer != nil {
		s.observer.IncSnapshots()
		s.observer.ObserveTrim(deleted)
	}
	if err != nil {
		// The snapshot itself is stored; report the trim failure.
		s.logger.Error("snapshot trim failed", logpkg.Str("prefix", s.prefix), logpkg.Err(err))
		return snap, err
	}
	s.logger.Info("snapshot recorded", logpkg.Str("key", snap.Key), logpkg.Int("trimmed", deleted))

	if s.notifier != nil {
		if nerr := s.notifier.Notify(ctx, "Motion detected: "+snapshotURL); nerr != nil {
			s.logger.Warn("snapshot notify skipped", logpkg.Err(nerr))
		}
	}
	return snap, nil
}

// seedLocked floors the id generator at the newest stored snapshot id, once
// per Service, so a restart with an earlier clock never writes keys that sort
// below the ones already kept. Callers hold trimMu.
func (s *Service) seedLocked(ctx context.Context) error {
	if s.seeded {
		return nil
	}
	var newest id.ID
	found := false
	err := s.rt.DB().Scan(ctx, []byte(s.prefix), true, func(k, _ []byte) error {
		sid, perr := id.Parse(string(k[len(s.prefix):]))
		if perr != nil {
			return nil
		}
		if !found || sid.Compare(newest) > 0 {
			newest, found = sid, true
		}
		return nil
	})
	if err != nil {
		return &datastore.StoreReadError{Op: "seed " + s.prefix, Err: err}
	}
	if found {
		s.ids.Floor(newest)
		s.logger.Debug("snapshot ids seeded", logpkg.Str("newest", newest.String()))
	}
	s.seeded = true
	return nil
}

// Snapshots returns the stored snapshots, newest first.
func (s *Service) Snapshots(ctx context.Context) ([]Snapshot, error) {
	recs, err := datastore.GetRecordsByPrefix(ctx, s.rt.DB(), s.prefix)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(recs))
	for k, v := range recs {
		out = append(out, decodeSnapshot(s.prefix, k, v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// Trim applies the retention window without recording anything.
func (s *Service) Trim(ctx context.Context) (int, error) {
	s.trimMu.Lock()
	deleted, err := datastore.TrimByPrefixN(ctx, s.rt.DB(), s.prefix, s.retain)
	s.trimMu.Unlock()
	if s.observer != nil {
		s.observer.ObserveTrim(deleted)
	}
	return deleted, err
}

// decodeSnapshot tolerates values written as a bare URL.
func decodeSnapshot(prefix, key, value string) Snapshot {
	snap := Snapshot{Key: key, ID: strings.TrimPrefix(key, prefix)}
	var rec snapshotRecord
	if err := json.Unmarshal([]byte(value), &rec); err == nil && rec.URL != "" {
		snap.URL = rec.URL
		snap.Time = time.UnixMilli(rec.TsMs)
		return snap
	}
	snap.URL = value
	if sid, err := id.Parse(snap.ID); err == nil {
		snap.Time = sid.Time()
	}
	return snap
}
