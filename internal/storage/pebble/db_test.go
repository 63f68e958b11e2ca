package pebblestore

import (
	"context"
	"errors"
	"testing"
	"time"
)

type testMetrics struct {
	wrote        int
	read         int
	batchCommits int
	batchBytes   int
}

func (m *testMetrics) ObserveWrite(d time.Duration, bytes int) { m.wrote += bytes }
func (m *testMetrics) ObserveRead(d time.Duration, bytes int)  { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, numOps int, bytes int) {
	m.batchCommits++
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	dir := t.TempDir()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       dir,
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	val := []byte("v1")
	if err := db.Set(key, val); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(val) {
		t.Fatalf("got %q want %q", got, val)
	}

	if metrics.read == 0 {
		t.Fatalf("expected read metrics to record bytes")
	}
	if metrics.wrote != len(key)+len(val) {
		t.Fatalf("wrote %d bytes, want %d", metrics.wrote, len(key)+len(val))
	}
	if metrics.batchCommits != 0 || metrics.batchBytes != 0 {
		t.Fatalf("single set counted as batch commit: %d commits, %d bytes", metrics.batchCommits, metrics.batchBytes)
	}

	if err := db.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	db, metrics := newTestDB(t)

	b := db.NewBatch()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	b.Close()

	if metrics.batchCommits != 1 {
		t.Fatalf("want 1 batch commit, got %d", metrics.batchCommits)
	}
	if metrics.batchBytes <= 0 {
		t.Fatalf("expected positive batch bytes")
	}
}

func TestSnapshotConsistency(t *testing.T) {
	db, _ := newTestDB(t)

	key := []byte("k2")
	if err := db.Set(key, []byte("old")); err != nil {
		t.Fatalf("set: %v", err)
	}
	snap := db.NewSnapshot()
	defer snap.Close()

	// mutate after snapshot
	if err := db.Set(key, []byte("new")); err != nil {
		t.Fatalf("set: %v", err)
	}

	// read via snapshot should see old
	valOld, closer, err := snap.Get(key)
	if err != nil {
		t.Fatalf("snap get: %v", err)
	}
	if string(valOld) != "old" {
		t.Fatalf("snapshot saw %q want %q", valOld, "old")
	}
	closer.Close()

	// read via DB should see new
	valNew, err := db.Get(key)
	if err != nil {
		t.Fatalf("db get: %v", err)
	}
	if string(valNew) != "new" {
		t.Fatalf("db saw %q want %q", valNew, "new")
	}
}

func seed(t *testing.T, db *DB, kv map[string]string) {
	t.Helper()
	for k, v := range kv {
		if err := db.Set([]byte(k), []byte(v)); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
}

func TestScanOrderAndPrefix(t *testing.T) {
	db, metrics := newTestDB(t)
	seed(t, db, map[string]string{"motion.2": "b", "other.1": "z", "motion.1": "a", "motion/": "x"})

	var keys []string
	err := db.Scan(context.Background(), []byte("motion."), false, func(k, v []byte) error {
		keys = append(keys, string(k)+"="+string(v))
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(keys) != 2 || keys[0] != "motion.1=a" || keys[1] != "motion.2=b" {
		t.Fatalf("unexpected scan result %v", keys)
	}
	if metrics.read == 0 {
		t.Fatalf("expected read metrics from scan")
	}

	var all []string
	if err := db.Scan(context.Background(), nil, true, func(k, v []byte) error {
		if v != nil {
			t.Fatalf("keys-only scan returned value for %s", k)
		}
		all = append(all, string(k))
		return nil
	}); err != nil {
		t.Fatalf("scan all: %v", err)
	}
	want := []string{"motion.1", "motion.2", "motion/", "other.1"}
	if len(all) != len(want) {
		t.Fatalf("got %v want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Fatalf("got %v want %v", all, want)
		}
	}
}

func TestScanStopsOnCallbackError(t *testing.T) {
	db, _ := newTestDB(t)
	seed(t, db, map[string]string{"a": "1", "b": "2", "c": "3"})
	stop := errors.New("stop")
	n := 0
	err := db.Scan(context.Background(), nil, false, func(k, v []byte) error {
		n++
		if n == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Fatalf("want stop error, got %v", err)
	}
	if n != 2 {
		t.Fatalf("callback ran %d times", n)
	}
}

func TestScanHonorsContext(t *testing.T) {
	db, _ := newTestDB(t)
	seed(t, db, map[string]string{"a": "1", "b": "2"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := db.Scan(ctx, nil, false, func(k, v []byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestDeleteKeysAtomicBatch(t *testing.T) {
	db, metrics := newTestDB(t)
	seed(t, db, map[string]string{"p.1": "a", "p.2": "b", "p.3": "c"})
	if err := db.DeleteKeys(context.Background(), [][]byte{[]byte("p.1"), []byte("p.2")}); err != nil {
		t.Fatalf("delete keys: %v", err)
	}
	if _, err := db.Get([]byte("p.1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("p.1 should be gone, got %v", err)
	}
	if _, err := db.Get([]byte("p.3")); err != nil {
		t.Fatalf("p.3 should remain: %v", err)
	}
	if metrics.batchCommits == 0 {
		t.Fatalf("expected a batch commit")
	}
}

func TestClosedDB(t *testing.T) {
	db, _ := newTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Scan(context.Background(), nil, false, func(k, v []byte) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Fatalf("scan after close: %v", err)
	}
	if err := db.Set([]byte("k"), []byte("v")); !errors.Is(err, ErrClosed) {
		t.Fatalf("set after close: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestCompactPrefix(t *testing.T) {
	db, _ := newTestDB(t)
	seed(t, db, map[string]string{"p.1": "a", "p.2": "b", "q.1": "c"})
	if err := db.DeleteKeys(context.Background(), [][]byte{[]byte("p.1")}); err != nil {
		t.Fatalf("delete keys: %v", err)
	}
	if err := db.CompactPrefix([]byte("p.")); err != nil {
		t.Fatalf("compact: %v", err)
	}
	if _, err := db.Get([]byte("p.1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("p.1 back after compaction: %v", err)
	}
	for _, k := range []string{"p.2", "q.1"} {
		if _, err := db.Get([]byte(k)); err != nil {
			t.Fatalf("%s lost in compaction: %v", k, err)
		}
	}
	if err := db.CompactPrefix(nil); err != nil {
		t.Fatalf("empty prefix: %v", err)
	}
	if err := db.CompactPrefix([]byte{0xff}); err != nil {
		t.Fatalf("unbounded prefix: %v", err)
	}

	_ = db.Close()
	if err := db.CompactPrefix([]byte("p.")); !errors.Is(err, ErrClosed) {
		t.Fatalf("compact after close: %v", err)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		in   []byte
		want []byte
	}{
		{[]byte("motion."), []byte("motion/")},
		{[]byte{'a', 0xff}, []byte{'b'}},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, tt := range tests {
		got := PrefixUpperBound(tt.in)
		if string(got) != string(tt.want) {
			t.Fatalf("PrefixUpperBound(%q)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseFsyncMode(t *testing.T) {
	for _, s := range []string{"always", "interval", "never"} {
		m, err := ParseFsyncMode(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if m.String() != s {
			t.Fatalf("round trip %s -> %s", s, m)
		}
	}
	if _, err := ParseFsyncMode("sometimes"); err == nil {
		t.Fatalf("expected error")
	}
}
