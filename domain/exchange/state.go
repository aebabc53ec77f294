package exchange

import (
	"fmt"
	"sort"
)

// State is a full, plain copy of an Exchange, used for snapshots.
type State struct {
	Ledger     []LedgerEntry
	Offers     []Offer
	Requests   []Request
	Trades     []Trade
	OfferSeq   uint64
	RequestSeq uint64
}

// Export copies the exchange. Offers and requests keep arrival order.
func (x *Exchange) Export() State {
	x.mu.RLock()
	defer x.mu.RUnlock()

	s := State{
		Offers:     x.offers.active(ResourceUnknown),
		Requests:   x.requests.open(ResourceUnknown),
		Trades:     append([]Trade(nil), x.trades.trades...),
		OfferSeq:   x.offerSeq,
		RequestSeq: x.requestSeq,
	}
	for _, e := range x.ledger.entries {
		s.Ledger = append(s.Ledger, *e)
	}
	sort.Slice(s.Ledger, func(i, j int) bool { return s.Ledger[i].CommunityID < s.Ledger[j].CommunityID })
	return s
}

// Restore replaces the exchange contents with s after checking the
// invariants a valid state must satisfy.
func (x *Exchange) Restore(s State) error {
	if err := s.check(); err != nil {
		return err
	}

	ledger := newEnergyLedger()
	for _, e := range s.Ledger {
		ledger.entries[e.CommunityID] = &e
	}
	offers := newOfferBook()
	for _, o := range s.Offers {
		offers.add(&o)
	}
	requests := newRequestBook()
	for _, r := range s.Requests {
		requests.add(&r)
	}
	trades := newTradeLedger()
	for _, t := range s.Trades {
		trades.append(t)
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.ledger = ledger
	x.offers = offers
	x.requests = requests
	x.trades = trades
	x.offerSeq = s.OfferSeq
	x.requestSeq = s.RequestSeq
	return nil
}

func (s State) check() error {
	for _, e := range s.Ledger {
		if e.Balance < e.Reserve || e.Reserve < 0 {
			return fmt.Errorf("ledger %q: balance %d below reserve %d", e.CommunityID, e.Balance, e.Reserve)
		}
	}
	var prev uint64
	for _, o := range s.Offers {
		if o.Available < 0 || o.Available > o.Quantity {
			return fmt.Errorf("offer %s: available %d outside [0,%d]", o.ID, o.Available, o.Quantity)
		}
		if o.Seq <= prev || o.Seq > s.OfferSeq {
			return fmt.Errorf("offer %s: sequence %d out of order", o.ID, o.Seq)
		}
		prev = o.Seq
	}
	prev = 0
	for _, r := range s.Requests {
		if r.Quantity < 0 || r.Quantity > r.Requested {
			return fmt.Errorf("request %s: quantity %d outside [0,%d]", r.ID, r.Quantity, r.Requested)
		}
		if r.Seq <= prev || r.Seq > s.RequestSeq {
			return fmt.Errorf("request %s: sequence %d out of order", r.ID, r.Seq)
		}
		prev = r.Seq
	}
	prev = 0
	for _, t := range s.Trades {
		if t.FromCommunityID == t.ToCommunityID || t.Quantity <= 0 || t.Seq <= prev {
			return fmt.Errorf("trade %s is malformed", t.ID)
		}
		prev = t.Seq
	}
	return nil
}
