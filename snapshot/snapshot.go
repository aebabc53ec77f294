package snapshot

import (
	"time"

	"barter/domain/exchange"
)

const FileName = "snapshot.bin.zst"

type Snapshot struct {
	// Seq is the last entry-WAL sequence folded into State.
	Seq     uint64
	Created time.Time
	State   exchange.State
}

// LastTradeSeq is the highest trade sequence contained in the snapshot.
func (s *Snapshot) LastTradeSeq() uint64 {
	if n := len(s.State.Trades); n > 0 {
		return s.State.Trades[n-1].Seq
	}
	return 0
}
