// Package entry is the entry (command) write-ahead log.
//
// Every accepted command is framed, checksummed and appended here before it
// touches in-memory state. On restart the log is replayed in sequence order
// to rebuild the exchange; snapshots let whole segments be dropped.
package entry
