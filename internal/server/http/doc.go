// Package httpserver provides the REST gateway for blinkhub: settings,
// chat integration and motion snapshot endpoints, plus /metrics.
//
// Every response carries an X-Request-ID header. Routes are registered by
// the controllers package and instrumented with request metrics.
//
// Example:
//
//	rt, _ := runtime.Open(runtime.Options{DataDir: "./data", Fsync: pebblestore.FsyncModeAlways, Config: config.Default()})
//	s := httpserver.New(rt, logger, httpserver.Services{Metrics: metrics.New()})
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = s.ListenAndServe(ctx, ":8080")
package httpserver
