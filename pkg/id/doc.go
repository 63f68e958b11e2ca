// Package id provides a 128-bit, lexicographically sortable identifier.
//
// The ID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Byte-wise comparison preserves creation order, and so does comparison of
// the hex String form. blinkhub relies on the latter when it embeds IDs in
// store keys such as "motion.snapshots.<id>" and keeps the largest keys as
// the most recent ones.
//
// The Generator is monotonic per process: a clock regression pins to the last
// seen millisecond, and a sequence overflow waits for the next millisecond.
//
//	g := id.NewGenerator()
//	key := "motion.snapshots." + g.Next().String()
package id
