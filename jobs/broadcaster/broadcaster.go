// Package broadcaster drains the trade outbox to a message broker.
package broadcaster

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"barter/domain/exchange"
	exitwal "barter/infra/wal/exit"
)

const EventTradeExecuted = "trade.executed"

// Event is the wire form of an outbox record.
type Event struct {
	V     int            `json:"v"`
	Type  string         `json:"type"`
	Seq   uint64         `json:"seq"`
	Trade exchange.Trade `json:"trade"`
}

func NewTradeEvent(t exchange.Trade) Event {
	return Event{V: 1, Type: EventTradeExecuted, Seq: t.Seq, Trade: t}
}

func (e Event) Key() []byte {
	return []byte(e.Trade.FromCommunityID)
}

type Config struct {
	Interval   time.Duration
	MaxRetries uint32
}

type Broadcaster struct {
	outbox *exitwal.ExitWAL
	pub    Publisher
	cfg    Config
	log    *zap.Logger
}

func New(outbox *exitwal.ExitWAL, pub Publisher, cfg Config, log *zap.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 10
	}
	return &Broadcaster{
		outbox: outbox,
		pub:    pub,
		cfg:    cfg,
		log:    log.Named("broadcaster"),
	}
}

// ------------------------------------------------
// LOOP
// ------------------------------------------------

// Run drains the outbox every Interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("started", zap.Duration("interval", b.cfg.Interval))

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.log.Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.Drain(ctx); err != nil {
				b.log.Warn("drain failed", zap.Error(err))
			}
		}
	}
}

// ------------------------------------------------
// DRAIN
// ------------------------------------------------

/*
Drain makes one pass over undelivered records, returning how many were
acknowledged.

SENT records are included: SENT without ACKED means the process died
mid-publish, and delivery is at-least-once. FAILED records are retried
until MaxRetries, after which they stay parked for inspection.
*/
func (b *Broadcaster) Drain(ctx context.Context) (int, error) {
	acked := 0
	err := b.outbox.ScanByState(func(rec exitwal.ExitRecord) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if rec.State == exitwal.StateFailed && rec.Retries >= b.cfg.MaxRetries {
			return nil
		}

		var ev Event
		if err := json.Unmarshal(rec.Payload, &ev); err != nil {
			b.log.Error("undecodable outbox record", zap.Uint64("seq", rec.Seq), zap.Error(err))
			return b.outbox.UpdateState(rec.Seq, exitwal.StateFailed, b.cfg.MaxRetries)
		}

		if err := b.outbox.MarkSent(rec.Seq); err != nil {
			return err
		}

		if err := b.pub.Publish(ctx, ev.Key(), rec.Payload); err != nil {
			b.log.Warn("publish failed",
				zap.Uint64("seq", rec.Seq),
				zap.Uint32("retries", rec.Retries+1),
				zap.Error(err),
			)
			return b.outbox.MarkFailed(rec.Seq)
		}

		acked++
		return b.outbox.MarkAcked(rec.Seq)
	}, exitwal.StateNew, exitwal.StateSent, exitwal.StateFailed)
	return acked, err
}

func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
