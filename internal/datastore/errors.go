package datastore

import "fmt"

// StoreReadError reports that streaming over the store failed.
type StoreReadError struct {
	// Op names the accessor operation that was scanning.
	Op  string
	Err error
}

func (e *StoreReadError) Error() string {
	return fmt.Sprintf("datastore: %s: read: %v", e.Op, e.Err)
}

func (e *StoreReadError) Unwrap() error { return e.Err }

// StoreWriteError reports that a deletion issued by a trim failed.
type StoreWriteError struct {
	Op string
	// Key is the first key whose deletion failed. Empty for batch failures.
	Key string
	// Deleted counts the deletions applied before the failure.
	Deleted int
	Err     error
}

func (e *StoreWriteError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("datastore: %s: delete batch: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("datastore: %s: delete %q (after %d deleted): %v", e.Op, e.Key, e.Deleted, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
