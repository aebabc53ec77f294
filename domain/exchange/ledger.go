package exchange

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"barter/domain/community"
)

const energyUnit = "kWh"

// LedgerEntry is one community's energy-credit account.
// Balance >= Reserve always holds.
type LedgerEntry struct {
	CommunityID string `json:"communityId"`
	Balance     int64  `json:"balance"`
	Reserve     int64  `json:"reserve"`
}

func (e *LedgerEntry) available() int64 {
	return e.Balance - e.Reserve
}

// Balance is a read-only view of a LedgerEntry.
type Balance struct {
	CommunityID string `json:"communityId"`
	Balance     int64  `json:"balance"`
	Reserve     int64  `json:"reserve"`
	Available   int64  `json:"available"`
	Unit        string `json:"unit"`
}

/*
EnergyLedger holds per-community energy credits.

Credits only move between entries (settle); they are never minted or burned
after seeding, so the sum of balances is constant under trading.
Not safe for concurrent use; the owning Exchange serializes access.
*/
type EnergyLedger struct {
	entries map[string]*LedgerEntry
}

func newEnergyLedger() *EnergyLedger {
	return &EnergyLedger{entries: make(map[string]*LedgerEntry)}
}

// seedBalance is balance = max(min, round(selfSufficiency × population × factor)),
// reserve = round(balance × ratio).
func seedBalance(c community.Community, p Params) (balance, reserve int64) {
	balance = int64(math.Round(c.EnergySelfSufficiency * float64(c.Population) * p.BalanceFactor))
	if balance < p.MinStartingBalance {
		balance = p.MinStartingBalance
	}
	reserve = int64(math.Round(float64(balance) * p.ReserveRatio))
	return balance, reserve
}

// initialize seeds an entry for every community that has none yet and
// reports how many were added. Existing entries are left untouched.
func (l *EnergyLedger) initialize(cs []community.Community, p Params) int {
	added := 0
	for _, c := range cs {
		if _, ok := l.entries[c.ID]; ok {
			continue
		}
		balance, reserve := seedBalance(c, p)
		l.entries[c.ID] = &LedgerEntry{CommunityID: c.ID, Balance: balance, Reserve: reserve}
		added++
	}
	return added
}

func (l *EnergyLedger) entry(id string) (*LedgerEntry, bool) {
	e, ok := l.entries[id]
	return e, ok
}

// available is 0 for unknown communities.
func (l *EnergyLedger) available(id string) int64 {
	if e, ok := l.entries[id]; ok {
		return e.available()
	}
	return 0
}

func (l *EnergyLedger) balance(id string) (Balance, error) {
	e, ok := l.entries[id]
	if !ok {
		return Balance{}, ledgerNotFound(id)
	}
	return e.view(), nil
}

func (e *LedgerEntry) view() Balance {
	return Balance{
		CommunityID: e.CommunityID,
		Balance:     e.Balance,
		Reserve:     e.Reserve,
		Available:   e.available(),
		Unit:        energyUnit,
	}
}

// balances is sorted by community id.
func (l *EnergyLedger) balances() []Balance {
	out := make([]Balance, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommunityID < out[j].CommunityID })
	return out
}

func (l *EnergyLedger) total() int64 {
	var sum int64
	for _, e := range l.entries {
		sum += e.Balance
	}
	return sum
}

// settle moves quantity credits from seller to buyer. The reserve guard is
// evaluated here, at settlement time, so depletion since the offer was made
// is caught. On error nothing changes.
func (l *EnergyLedger) settle(sellerID, buyerID string, quantity int64, price decimal.NullDecimal) (Receipt, error) {
	if quantity <= 0 {
		return Receipt{}, validationf("settlement quantity must be positive, got %d", quantity)
	}
	if sellerID == buyerID {
		return Receipt{}, validationf("community %q cannot settle with itself", sellerID)
	}
	if price.Valid && price.Decimal.IsNegative() {
		return Receipt{}, validationf("price per unit must not be negative")
	}
	seller, ok := l.entries[sellerID]
	if !ok {
		return Receipt{}, ledgerMissing(sellerID)
	}
	buyer, ok := l.entries[buyerID]
	if !ok {
		return Receipt{}, ledgerMissing(buyerID)
	}
	if avail := seller.available(); avail < quantity {
		return Receipt{}, insufficientFunds(sellerID, avail, quantity)
	}

	seller.Balance -= quantity
	buyer.Balance += quantity

	return Receipt{
		SellerID:     sellerID,
		BuyerID:      buyerID,
		Transferred:  quantity,
		Unit:         energyUnit,
		PricePerUnit: price,
		TotalValue:   totalValue(price, quantity),
	}, nil
}

func ledgerNotFound(id string) *Error {
	return &Error{
		Code:     CodeNotFound,
		Message:  "no energy ledger entry for community " + id,
		Metadata: map[string]string{"community_id": id},
	}
}
