package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"barter/domain/exchange"
	entrywal "barter/infra/wal/entry"
	"barter/snapshot"
)

/*
Recover rebuilds in-memory state from the newest snapshot plus the entry
WAL records written after it.

IMPORTANT:
- This MUST run before accepting traffic
- The outbox is NOT replayed; replayed trades are re-offered to it and it
  keeps the copies it already has
- Commands rejected the first time are rejected again and skipped
*/
func (s *ExchangeService) Recover(snapshotDir, walDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var from uint64
	snap, err := snapshot.Load(snapshotDir)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap != nil {
		if err := s.ex.Restore(snap.State); err != nil {
			return fmt.Errorf("restore snapshot: %w", err)
		}
		from = snap.Seq
		s.log.Info("snapshot loaded",
			zap.Uint64("seq", snap.Seq),
			zap.Int("trades", len(snap.State.Trades)),
			zap.Time("created", snap.Created),
		)
	}

	// Communities added to the directory after the snapshot get their
	// seeded ledger before the tail replays, as they had when it was written.
	added := s.ex.InitializeLedger()

	replayed := 0
	lastSeq, err := entrywal.Replay(walDir, from, func(rec *entrywal.Record) error {
		replayed++
		return s.replayRecord(rec)
	})
	if err != nil {
		return fmt.Errorf("replay entry wal: %w", err)
	}

	// Resume sequencing AFTER replay
	s.seq.Observe(lastSeq)

	s.log.Info("recovery completed",
		zap.Uint64("last_seq", lastSeq),
		zap.Int("replayed", replayed),
		zap.Int("ledgers_added", added),
	)
	return nil
}

func (s *ExchangeService) replayRecord(rec *entrywal.Record) error {
	cmd, err := unmarshalCommand(rec.Data)
	if err != nil {
		return fmt.Errorf("seq %d: %w", rec.Seq, err)
	}
	price, err := cmd.price()
	if err != nil {
		return fmt.Errorf("seq %d: price: %w", rec.Seq, err)
	}

	s.clock.Store(rec.Time)
	switch rec.Type {
	case entrywal.RecordOffer:
		_, err = s.ex.OfferSurplus(cmd.From, cmd.Resource, cmd.Quantity, price.Decimal)
	case entrywal.RecordRequest:
		_, err = s.ex.RequestResource(cmd.From, cmd.Resource, cmd.Quantity, cmd.Urgency)
	case entrywal.RecordTrade:
		_, err = s.ex.ExecuteTrade(cmd.From, cmd.To, cmd.Resource, cmd.Quantity, price)
	case entrywal.RecordSettle:
		_, err = s.ex.SettleEnergyTransfer(cmd.From, cmd.To, cmd.Quantity, price)
	case entrywal.RecordMatch:
		s.ex.Match()
	default:
		return fmt.Errorf("seq %d: unknown record type %v", rec.Seq, rec.Type)
	}
	s.flushTrades()

	var xerr *exchange.Error
	if err != nil && !errors.As(err, &xerr) {
		return fmt.Errorf("seq %d: %w", rec.Seq, err)
	}
	return nil
}
