package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"barter/domain/community"
	"barter/domain/exchange"
	"barter/infra/sequence"
	entrywal "barter/infra/wal/entry"
	exitwal "barter/infra/wal/exit"
	"barter/jobs/broadcaster"
)

// TradeIndex is the queryable secondary store of executed trades.
type TradeIndex interface {
	RecordTrade(t exchange.Trade)
	CommunityTrades(ctx context.Context, communityID string, limit int) ([]exchange.Trade, error)
}

type Options struct {
	Directory community.Directory
	Params    exchange.Params
	EntryWAL  *entrywal.WAL
	Outbox    *exitwal.ExitWAL // optional
	Index     TradeIndex       // optional
	Logger    *zap.Logger
	Now       func() time.Time
}

/*
ExchangeService is the ONLY write entry point into the system.

Every command is:
 1. stamped with a sequence number and a command time
 2. appended to the entry WAL
 3. applied to the exchange with the command time as its clock
 4. followed by its trades being written to the outbox and the index

Replaying the WAL runs steps 3 and 4 again with the recorded times, which
reproduces the same ids, timestamps and trades.
*/
type ExchangeService struct {
	mu sync.Mutex

	ex       *exchange.Exchange
	dir      community.Directory
	seq      *sequence.Sequencer
	entryWAL *entrywal.WAL
	outbox   *exitwal.ExitWAL
	index    TradeIndex
	log      *zap.Logger
	now      func() time.Time

	clock   atomic.Int64
	pending []exchange.Trade

	snapMu sync.Mutex
	jobs   sync.WaitGroup
}

func NewExchangeService(o Options) *ExchangeService {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	if o.Params == (exchange.Params{}) {
		o.Params = exchange.DefaultParams()
	}

	s := &ExchangeService{
		dir:      o.Directory,
		seq:      sequence.New(0),
		entryWAL: o.EntryWAL,
		outbox:   o.Outbox,
		index:    o.Index,
		log:      o.Logger.Named("service"),
		now:      o.Now,
	}
	s.clock.Store(o.Now().UnixNano())
	s.ex = exchange.New(o.Directory,
		exchange.WithParams(o.Params),
		exchange.WithClock(func() time.Time { return time.Unix(0, s.clock.Load()).UTC() }),
		exchange.WithTradeObserver(func(t exchange.Trade) { s.pending = append(s.pending, t) }),
	)
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

func (s *ExchangeService) OfferSurplus(ctx context.Context, communityID string, r exchange.Resource, quantity int64, price decimal.Decimal) (exchange.Offer, error) {
	var out exchange.Offer
	cmd := command{From: communityID, Resource: r, Quantity: quantity, Price: price.String()}
	err := s.execute(ctx, entrywal.RecordOffer, cmd, func() (err error) {
		out, err = s.ex.OfferSurplus(communityID, r, quantity, price)
		return err
	})
	return out, err
}

func (s *ExchangeService) RequestResource(ctx context.Context, communityID string, r exchange.Resource, quantity int64, urgency exchange.Urgency) (exchange.Request, error) {
	var out exchange.Request
	cmd := command{From: communityID, Resource: r, Quantity: quantity, Urgency: urgency}
	err := s.execute(ctx, entrywal.RecordRequest, cmd, func() (err error) {
		out, err = s.ex.RequestResource(communityID, r, quantity, urgency)
		return err
	})
	return out, err
}

func (s *ExchangeService) OfferEnergyCredits(ctx context.Context, communityID string, quantity int64, price decimal.Decimal) (exchange.Offer, error) {
	return s.OfferSurplus(ctx, communityID, exchange.ResourceEnergy, quantity, price)
}

func (s *ExchangeService) RequestEnergyCredits(ctx context.Context, communityID string, quantity int64, urgency exchange.Urgency) (exchange.Request, error) {
	return s.RequestResource(ctx, communityID, exchange.ResourceEnergy, quantity, urgency)
}

func (s *ExchangeService) ExecuteTrade(ctx context.Context, fromID, toID string, r exchange.Resource, quantity int64, price decimal.NullDecimal) (exchange.Trade, error) {
	var out exchange.Trade
	cmd := command{From: fromID, To: toID, Resource: r, Quantity: quantity, Price: priceString(price)}
	err := s.execute(ctx, entrywal.RecordTrade, cmd, func() (err error) {
		out, err = s.ex.ExecuteTrade(fromID, toID, r, quantity, price)
		return err
	})
	return out, err
}

func (s *ExchangeService) SettleEnergyTransfer(ctx context.Context, sellerID, buyerID string, quantity int64, price decimal.NullDecimal) (exchange.Receipt, error) {
	var out exchange.Receipt
	cmd := command{From: sellerID, To: buyerID, Quantity: quantity, Price: priceString(price)}
	err := s.execute(ctx, entrywal.RecordSettle, cmd, func() (err error) {
		out, err = s.ex.SettleEnergyTransfer(sellerID, buyerID, quantity, price)
		return err
	})
	return out, err
}

// RunMatchingPass matches every open request against the books and returns
// the trades it produced.
func (s *ExchangeService) RunMatchingPass(ctx context.Context) ([]exchange.Trade, error) {
	var out []exchange.Trade
	err := s.execute(ctx, entrywal.RecordMatch, command{}, func() error {
		out = s.ex.Match()
		return nil
	})
	return out, err
}

func (s *ExchangeService) execute(ctx context.Context, t entrywal.RecordType, cmd command, apply func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.now().UnixNano()
	seq := s.seq.Next()
	if err := s.entryWAL.Append(entrywal.NewRecord(t, seq, at, cmd.marshal())); err != nil {
		s.log.Error("entry wal append failed", zap.Stringer("type", t), zap.Uint64("seq", seq), zap.Error(err))
		return fmt.Errorf("entry wal append: %w", err)
	}

	s.clock.Store(at)
	err := apply()
	s.flushTrades()

	if err != nil {
		s.log.Debug("command rejected",
			zap.Stringer("type", t),
			zap.Uint64("seq", seq),
			zap.String("code", string(exchange.CodeOf(err))),
			zap.Error(err),
		)
	}
	return err
}

// flushTrades hands the trades produced by the last command to the outbox
// and the index. The outbox ignores seqs it already holds, so replay may
// call this again for the same trades.
func (s *ExchangeService) flushTrades() {
	for _, t := range s.pending {
		s.log.Info("trade executed",
			zap.String("id", t.ID),
			zap.Uint64("seq", t.Seq),
			zap.String("from", t.FromCommunityID),
			zap.String("to", t.ToCommunityID),
			zap.Stringer("resource", t.Resource),
			zap.Int64("quantity", t.Quantity),
			zap.Float64("distance_km", t.DistanceKm),
		)

		if s.outbox != nil {
			payload, err := json.Marshal(broadcaster.NewTradeEvent(t))
			if err == nil {
				err = s.outbox.PutNew(t.Seq, payload)
			}
			if err != nil {
				s.log.Error("outbox write failed", zap.Uint64("trade_seq", t.Seq), zap.Error(err))
			}
		}
		if s.index != nil {
			s.index.RecordTrade(t)
		}
	}
	s.pending = s.pending[:0]
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *ExchangeService) GetActiveOffers(r exchange.Resource) []exchange.Offer {
	return s.ex.GetActiveOffers(r)
}

func (s *ExchangeService) GetOpenRequests(r exchange.Resource) []exchange.Request {
	return s.ex.GetOpenRequests(r)
}

func (s *ExchangeService) GetCommunityOffers(communityID string, r exchange.Resource) []exchange.Offer {
	return s.ex.GetCommunityOffers(communityID, r)
}

func (s *ExchangeService) GetCommunityRequests(communityID string, r exchange.Resource) []exchange.Request {
	return s.ex.GetCommunityRequests(communityID, r)
}

func (s *ExchangeService) GetOffer(id string) (exchange.Offer, error) {
	return s.ex.GetOffer(id)
}

func (s *ExchangeService) GetRequest(id string) (exchange.Request, error) {
	return s.ex.GetRequest(id)
}

func (s *ExchangeService) GetEnergyBalances() []exchange.Balance {
	return s.ex.GetEnergyBalances()
}

func (s *ExchangeService) GetCommunityEnergyBalance(communityID string) (exchange.Balance, error) {
	return s.ex.GetCommunityEnergyBalance(communityID)
}

func (s *ExchangeService) GetTradeStats() exchange.TradeStats {
	return s.ex.GetTradeStats()
}

func (s *ExchangeService) GetTradeHistory(limit int) []exchange.Trade {
	return s.ex.GetTradeHistory(limit)
}

func (s *ExchangeService) GetSelfSufficiencyLeaderboard(limit int) []community.Community {
	return s.ex.GetSelfSufficiencyLeaderboard(limit)
}

// GetCommunityTrades lists trades a community took part in, newest first.
// Without an index it falls back to scanning the in-memory history.
func (s *ExchangeService) GetCommunityTrades(ctx context.Context, communityID string, limit int) ([]exchange.Trade, error) {
	if _, ok := s.dir.Lookup(communityID); !ok {
		return nil, exchange.CommunityNotFound(communityID)
	}
	if s.index != nil {
		return s.index.CommunityTrades(ctx, communityID, limit)
	}

	var out []exchange.Trade
	for _, t := range s.ex.GetTradeHistory(0) {
		if t.FromCommunityID != communityID && t.ToCommunityID != communityID {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// LastSeq is the sequence of the last command written or replayed.
func (s *ExchangeService) LastSeq() uint64 {
	return s.seq.Current()
}
