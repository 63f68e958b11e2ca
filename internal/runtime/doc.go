// Package runtime opens the embedded store and carries configuration for a
// single-node blinkhub instance. Services are built on top of it.
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data/store", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	defer rt.Close()
//	_ = rt.CheckHealth(context.Background())
package runtime
