package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"barter/domain/exchange"
	"barter/snapshot"
)

// Snapshot writes the current state to dir, then truncates the entry WAL
// and garbage-collects delivered outbox records it covers.
func (s *ExchangeService) Snapshot(dir string) error {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	s.mu.Lock()
	snap := &snapshot.Snapshot{
		Seq:     s.seq.Current(),
		Created: s.now(),
		State:   s.ex.Export(),
	}
	s.mu.Unlock()

	w := &snapshot.Writer{Dir: dir}
	if err := w.Write(snap); err != nil {
		return err
	}

	// Truncate ENTRY WAL after snapshot
	if err := s.entryWAL.TruncateBefore(snap.Seq); err != nil {
		s.log.Warn("entry wal truncate failed", zap.Error(err))
	}

	// GC EXIT WAL (acked only)
	if s.outbox != nil {
		n, err := s.outbox.DeleteAckedUpTo(snap.LastTradeSeq())
		if err != nil {
			s.log.Warn("outbox gc failed", zap.Error(err))
		} else if n > 0 {
			s.log.Debug("outbox gc", zap.Int("deleted", n))
		}
	}

	s.log.Info("snapshot written", zap.Uint64("seq", snap.Seq), zap.Int("trades", len(snap.State.Trades)))
	return nil
}

// StartSnapshotJob snapshots every interval until ctx is done.
func (s *ExchangeService) StartSnapshotJob(ctx context.Context, dir string, interval time.Duration) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if ctx.Err() != nil {
					return
				}
				if err := s.Snapshot(dir); err != nil {
					s.log.Error("snapshot failed", zap.Error(err))
				}
			}
		}
	}()
}

// StartMatchJob runs a matching pass every interval until ctx is done.
// Ticks with no open requests are skipped and leave no WAL record.
func (s *ExchangeService) StartMatchJob(ctx context.Context, interval time.Duration) {
	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if len(s.ex.GetOpenRequests(exchange.ResourceUnknown)) == 0 {
					continue
				}
				trades, err := s.RunMatchingPass(ctx)
				if err != nil {
					if ctx.Err() == nil {
						s.log.Error("matching pass failed", zap.Error(err))
					}
					continue
				}
				if len(trades) > 0 {
					s.log.Info("matching pass", zap.Int("trades", len(trades)))
				}
			}
		}
	}()
}

// Wait blocks until every started job has returned. Jobs return once the
// context they were started with is done.
func (s *ExchangeService) Wait() {
	s.jobs.Wait()
}
