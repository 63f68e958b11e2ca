package datastore

import (
	"bytes"
	"context"
	"sort"
)

// RetainCount is the number of keys TrimByPrefix keeps under a prefix.
const RetainCount = 5

// Store is the handle the accessor reads from. *pebblestore.DB satisfies it.
type Store interface {
	// Scan calls fn for every record in ascending key order, restricted to
	// prefix when it is non-empty. With keysOnly set, value is nil. Slices
	// passed to fn must not be retained. An error from fn stops the scan.
	Scan(ctx context.Context, prefix []byte, keysOnly bool, fn func(key, value []byte) error) error
	// Delete removes the record stored under key.
	Delete(key []byte) error
}

// BatchDeleter is implemented by stores that can delete many keys atomically.
type BatchDeleter interface {
	DeleteKeys(ctx context.Context, keys [][]byte) error
}

// Predicate reports whether a record belongs in a result set.
type Predicate func(key, value []byte) bool

// HasPrefix matches keys starting with prefix. The empty prefix matches all keys.
func HasPrefix(prefix string) Predicate {
	p := []byte(prefix)
	return func(key, _ []byte) bool { return bytes.HasPrefix(key, p) }
}

// GetAllRecords returns every record in the store.
func GetAllRecords(ctx context.Context, s Store) (map[string]string, error) {
	return collect(ctx, s, "get_all", nil, nil)
}

// GetRecordsByPrefix returns the records whose key starts with prefix.
func GetRecordsByPrefix(ctx context.Context, s Store, prefix string) (map[string]string, error) {
	return collect(ctx, s, "get_by_prefix", []byte(prefix), HasPrefix(prefix))
}

// GetRecords returns the records accepted by pred. A nil pred accepts all.
func GetRecords(ctx context.Context, s Store, pred Predicate) (map[string]string, error) {
	return collect(ctx, s, "get_matching", nil, pred)
}

func collect(ctx context.Context, s Store, op string, bound []byte, pred Predicate) (map[string]string, error) {
	out := map[string]string{}
	err := s.Scan(ctx, bound, false, func(key, value []byte) error {
		if pred == nil || pred(key, value) {
			out[string(key)] = string(value)
		}
		return nil
	})
	if err != nil {
		return nil, &StoreReadError{Op: op, Err: err}
	}
	return out, nil
}

// TrimByPrefix keeps the RetainCount lexicographically largest keys under
// prefix and deletes the others. It returns the number of deleted records.
func TrimByPrefix(ctx context.Context, s Store, prefix string) (int, error) {
	return TrimByPrefixN(ctx, s, prefix, RetainCount)
}

// TrimByPrefixN is TrimByPrefix with an explicit retention window. A negative
// retain is treated as zero.
//
// Keys are collected with a key-only scan, sorted descending, and every key
// at index >= retain is deleted. Stores implementing BatchDeleter delete in
// one atomic batch; otherwise keys are deleted one by one and the first
// failure aborts the trim.
func TrimByPrefixN(ctx context.Context, s Store, prefix string, retain int) (int, error) {
	const op = "trim_by_prefix"
	if retain < 0 {
		retain = 0
	}

	var matched [][]byte
	p := []byte(prefix)
	err := s.Scan(ctx, p, true, func(key, _ []byte) error {
		if bytes.HasPrefix(key, p) {
			matched = append(matched, append([]byte(nil), key...))
		}
		return nil
	})
	if err != nil {
		return 0, &StoreReadError{Op: op, Err: err}
	}
	if len(matched) <= retain {
		return 0, nil
	}

	sort.Slice(matched, func(i, j int) bool { return bytes.Compare(matched[i], matched[j]) > 0 })
	expired := matched[retain:]

	if bd, ok := s.(BatchDeleter); ok {
		if err := bd.DeleteKeys(ctx, expired); err != nil {
			return 0, &StoreWriteError{Op: op, Err: err}
		}
		return len(expired), nil
	}
	for i, key := range expired {
		if err := ctx.Err(); err != nil {
			return i, &StoreWriteError{Op: op, Key: string(key), Deleted: i, Err: err}
		}
		if err := s.Delete(key); err != nil {
			return i, &StoreWriteError{Op: op, Key: string(key), Deleted: i, Err: err}
		}
	}
	return len(expired), nil
}
