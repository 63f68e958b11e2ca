// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// snapshots, batches, prefix scans and minimal metrics hooks.
//
// *DB is the store handle handed to the datastore accessor: Scan streams
// records (optionally key-only) within a prefix, Delete removes one key and
// DeleteKeys removes many in a single atomic batch.
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data/store",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	_ = db.Set([]byte("motion.url"), []byte("http://cam/snapshot.jpg"))
//	_ = db.Scan(ctx, []byte("motion."), false, func(k, v []byte) error {
//	    fmt.Printf("%s=%s\n", k, v)
//	    return nil
//	})
package pebblestore
