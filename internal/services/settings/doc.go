// Package settingsvc exposes blinkhub's stored settings as plain key/value
// records. Reads go through the datastore accessor; writes go straight to the
// store.
package settingsvc
