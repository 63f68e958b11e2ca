// Package motionsvc stores the motion camera source and relays snapshot URLs.
//
// Snapshots are written under "<prefix><id>" where id is a pkg/id ID in hex.
// IDs sort by creation time, so the lexicographically largest keys are the
// newest snapshots and datastore.TrimByPrefixN keeps exactly the most recent
// ones. Writes and trims are serialized inside the service.
package motionsvc
