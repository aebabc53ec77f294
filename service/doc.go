// Package service orchestrates the exchange and its persistence: the entry
// WAL, snapshots, the trade outbox and the trade index.
//
// It provides the command and query API consumed by transports like gRPC,
// decoupled from any particular wire format.
package service
