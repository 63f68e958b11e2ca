// Package chatsvc manages the chat integration's persisted state (token and
// default notify target under the "slack." prefix) and its connection
// lifecycle. The wire protocol is behind the Connector interface; the
// default LogConnector only logs.
//
// Notify is throttled with a token bucket so a burst of motion events cannot
// flood the chat target.
package chatsvc
