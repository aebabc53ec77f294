// Package snapshot persists a full copy of the exchange so the entry WAL
// can be truncated. A snapshot is gob-encoded, zstd-compressed and written
// atomically; restart loads it and replays only the WAL tail after Seq.
package snapshot
