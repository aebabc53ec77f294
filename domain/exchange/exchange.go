// Package exchange is the inter-community resource exchange: offer and
// request books, a nearest-first matching engine, the energy-credit ledger
// and the trade record.
//
// An Exchange is a single-writer state machine. All mutating calls are
// serialized behind one lock, so a matching pass never interleaves with
// another pass or with a settlement.
package exchange

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"barter/domain/community"
	"barter/domain/geo"
)

// Params are the tunable constants of ledger seeding and carbon pricing.
type Params struct {
	MinStartingBalance int64
	BalanceFactor      float64
	ReserveRatio       float64
	CarbonFactor       float64
}

func DefaultParams() Params {
	return Params{
		MinStartingBalance: 500,
		BalanceFactor:      0.05,
		ReserveRatio:       0.2,
		CarbonFactor:       geo.DefaultCarbonFactor,
	}
}

type Option func(*Exchange)

func WithParams(p Params) Option {
	return func(x *Exchange) { x.params = p }
}

// WithClock sets the time source for CreatedAt and Timestamp fields.
func WithClock(now func() time.Time) Option {
	return func(x *Exchange) { x.now = now }
}

// WithTradeObserver registers fn to see every appended trade. It runs with
// the exchange lock held and must not call back into the Exchange.
func WithTradeObserver(fn func(Trade)) Option {
	return func(x *Exchange) { x.observe = fn }
}

// ids are UUIDv5 over kind and counter, so replaying the same commands
// yields the same ids.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("barter:exchange"))

func newID(kind string, n uint64) string {
	return uuid.NewSHA1(idSpace, []byte(fmt.Sprintf("%s/%d", kind, n))).String()
}

type Exchange struct {
	mu sync.RWMutex

	dir     community.Directory
	params  Params
	now     func() time.Time
	observe func(Trade)

	ledger   *EnergyLedger
	offers   *OfferBook
	requests *RequestBook
	trades   *TradeLedger

	offerSeq   uint64
	requestSeq uint64
}

// New builds an exchange over dir and seeds the energy ledger for every
// community in it.
func New(dir community.Directory, opts ...Option) *Exchange {
	x := &Exchange{
		dir:      dir,
		params:   DefaultParams(),
		now:      func() time.Time { return time.Now().UTC() },
		ledger:   newEnergyLedger(),
		offers:   newOfferBook(),
		requests: newRequestBook(),
		trades:   newTradeLedger(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.ledger.initialize(dir.All(), x.params)
	return x
}

// InitializeLedger seeds entries for directory communities that have none,
// returning how many were added. Existing balances are never reset.
func (x *Exchange) InitializeLedger() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ledger.initialize(x.dir.All(), x.params)
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// OfferSurplus posts a surplus offer and runs a matching pass. The returned
// offer reflects any fills from that pass. Energy offers are held to the
// same available-credit guard as OfferEnergyCredits.
func (x *Exchange) OfferSurplus(communityID string, r Resource, quantity int64, price decimal.Decimal) (Offer, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !r.Valid() {
		return Offer{}, validationf("invalid resource type %v", r)
	}
	if quantity <= 0 {
		return Offer{}, validationf("offer quantity must be positive, got %d", quantity)
	}
	if price.IsNegative() {
		return Offer{}, validationf("offer price must not be negative, got %s", price)
	}
	if _, ok := x.dir.Lookup(communityID); !ok {
		return Offer{}, CommunityNotFound(communityID)
	}
	if r == ResourceEnergy {
		e, ok := x.ledger.entry(communityID)
		if !ok {
			return Offer{}, ledgerMissing(communityID)
		}
		if avail := e.available(); avail < quantity {
			return Offer{}, insufficientFunds(communityID, avail, quantity)
		}
	}

	x.offerSeq++
	o := &Offer{
		ID:          newID("offer", x.offerSeq),
		Seq:         x.offerSeq,
		CommunityID: communityID,
		Resource:    r,
		Quantity:    quantity,
		Available:   quantity,
		Price:       price,
		Status:      OfferActive,
		CreatedAt:   x.now(),
	}
	x.offers.add(o)

	x.matchLocked()
	return *o, nil
}

// RequestResource posts a need and runs a matching pass. Urgency zero means
// medium.
func (x *Exchange) RequestResource(communityID string, r Resource, quantity int64, urgency Urgency) (Request, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if urgency == 0 {
		urgency = UrgencyMedium
	}
	if !r.Valid() {
		return Request{}, validationf("invalid resource type %v", r)
	}
	if quantity <= 0 {
		return Request{}, validationf("request quantity must be positive, got %d", quantity)
	}
	if !urgency.Valid() {
		return Request{}, validationf("invalid urgency %v", urgency)
	}
	if _, ok := x.dir.Lookup(communityID); !ok {
		return Request{}, CommunityNotFound(communityID)
	}
	if r == ResourceEnergy {
		if _, ok := x.ledger.entry(communityID); !ok {
			return Request{}, ledgerMissing(communityID)
		}
	}

	x.requestSeq++
	req := &Request{
		ID:          newID("request", x.requestSeq),
		Seq:         x.requestSeq,
		CommunityID: communityID,
		Resource:    r,
		Quantity:    quantity,
		Requested:   quantity,
		Urgency:     urgency,
		Status:      RequestOpen,
		CreatedAt:   x.now(),
	}
	x.requests.add(req)

	x.matchLocked()
	return *req, nil
}

func (x *Exchange) OfferEnergyCredits(communityID string, quantity int64, price decimal.Decimal) (Offer, error) {
	return x.OfferSurplus(communityID, ResourceEnergy, quantity, price)
}

func (x *Exchange) RequestEnergyCredits(communityID string, quantity int64, urgency Urgency) (Request, error) {
	return x.RequestResource(communityID, ResourceEnergy, quantity, urgency)
}

// ExecuteTrade records a direct transfer outside the books. Energy trades
// settle on the ledger first; if settlement fails nothing is recorded.
func (x *Exchange) ExecuteTrade(fromID, toID string, r Resource, quantity int64, price decimal.NullDecimal) (Trade, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.executeLocked(fromID, toID, r, quantity, price)
}

// SettleEnergyTransfer moves credits without recording a trade.
func (x *Exchange) SettleEnergyTransfer(sellerID, buyerID string, quantity int64, price decimal.NullDecimal) (Receipt, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.ledger.settle(sellerID, buyerID, quantity, price)
}

// Match runs one matching pass and returns the trades it produced.
func (x *Exchange) Match() []Trade {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.matchLocked()
}

func (x *Exchange) executeLocked(fromID, toID string, r Resource, quantity int64, price decimal.NullDecimal) (Trade, error) {
	from, ok := x.dir.Lookup(fromID)
	if !ok {
		return Trade{}, CommunityNotFound(fromID)
	}
	to, ok := x.dir.Lookup(toID)
	if !ok {
		return Trade{}, CommunityNotFound(toID)
	}
	if !r.Valid() {
		return Trade{}, validationf("invalid resource type %v", r)
	}
	if quantity <= 0 {
		return Trade{}, validationf("trade quantity must be positive, got %d", quantity)
	}
	if fromID == toID {
		return Trade{}, validationf("community %q cannot trade with itself", fromID)
	}
	if price.Valid && price.Decimal.IsNegative() {
		return Trade{}, validationf("price per unit must not be negative")
	}

	distance := geo.DistanceKm(from.Coordinates, to.Coordinates)

	if r == ResourceEnergy {
		if _, err := x.ledger.settle(fromID, toID, quantity, price); err != nil {
			return Trade{}, err
		}
	}

	seq := x.trades.nextSeq()
	t := Trade{
		ID:              newID("trade", seq),
		Seq:             seq,
		FromCommunityID: fromID,
		ToCommunityID:   toID,
		Resource:        r,
		Quantity:        quantity,
		DistanceKm:      distance,
		CarbonCostKg:    geo.CarbonCostKg(distance, quantity, x.params.CarbonFactor),
		PricePerUnit:    price,
		TotalValue:      totalValue(price, quantity),
		Timestamp:       x.now(),
	}
	x.trades.append(t)
	if x.observe != nil {
		x.observe(t)
	}
	return t, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// GetActiveOffers lists open offers; ResourceUnknown lists every resource.
func (x *Exchange) GetActiveOffers(r Resource) []Offer {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.offers.active(r)
}

// GetOpenRequests lists open requests in creation order; ResourceUnknown
// lists every resource.
func (x *Exchange) GetOpenRequests(r Resource) []Request {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.requests.open(r)
}

func (x *Exchange) GetCommunityOffers(communityID string, r Resource) []Offer {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.offers.ofCommunity(communityID, r)
}

func (x *Exchange) GetCommunityRequests(communityID string, r Resource) []Request {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.requests.ofCommunity(communityID, r)
}

func (x *Exchange) GetOffer(id string) (Offer, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	o, ok := x.offers.get(id)
	if !ok {
		return Offer{}, &Error{Code: CodeNotFound, Message: "offer " + id + " not found"}
	}
	return *o, nil
}

func (x *Exchange) GetRequest(id string) (Request, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	r, ok := x.requests.get(id)
	if !ok {
		return Request{}, &Error{Code: CodeNotFound, Message: "request " + id + " not found"}
	}
	return *r, nil
}

func (x *Exchange) GetEnergyBalances() []Balance {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ledger.balances()
}

func (x *Exchange) GetCommunityEnergyBalance(communityID string) (Balance, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ledger.balance(communityID)
}

// TotalEnergy is the sum of all balances; trading never changes it.
func (x *Exchange) TotalEnergy() int64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.ledger.total()
}

func (x *Exchange) GetTradeStats() TradeStats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return aggregate(x.trades.trades)
}

// GetTradeHistory returns the most recent trades, newest first.
// limit <= 0 returns all of them.
func (x *Exchange) GetTradeHistory(limit int) []Trade {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.trades.recent(limit)
}

func (x *Exchange) TradeCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.trades.len()
}

func (x *Exchange) GetSelfSufficiencyLeaderboard(limit int) []community.Community {
	return community.Leaderboard(x.dir, limit)
}
