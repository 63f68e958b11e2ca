// Package client provides the `blinkhub` command-line client commands.
//
// # Address configuration
//
// The HTTP base URL is discovered by the application that embeds the
// commands via a BaseURLFunc. The standalone binary reads BLINKHUB_HTTP and
// defaults to http://127.0.0.1:8080. The gRPC address is read from
// BLINKHUB_GRPC (default 127.0.0.1:50051).
//
// Usage
//
//	# offline, against a stopped server's data dir
//	blinkhub kv ls --data-dir ./data --prefix motion.
//	blinkhub kv ls --data-dir ./data --filter 'json.enabled == true'
//	blinkhub kv trim --data-dir ./data --prefix motion.snapshots. --retain 5
//
//	# against a running server
//	blinkhub health
//	blinkhub snapshots add http://cam.local/snapshot.jpg
//	blinkhub snapshots ls
//	blinkhub snapshots trim
package client
