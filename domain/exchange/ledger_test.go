package exchange

import (
	"testing"

	"github.com/shopspring/decimal"

	"barter/domain/community"
)

func TestSeedBalance(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name        string
		suff        float64
		pop         int64
		wantBalance int64
		wantReserve int64
	}{
		{"formula", 80, 1000, 4000, 800},
		{"floor", 10, 50, 500, 100},
		{"rounds to nearest", 33, 101, 167, 33},
		{"zero rating", 0, 100000, 500, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, r := seedBalance(community.Community{ID: "c", Population: tc.pop, EnergySelfSufficiency: tc.suff}, p)
			if b != tc.wantBalance || r != tc.wantReserve {
				t.Fatalf("seed = (%d, %d), want (%d, %d)", b, r, tc.wantBalance, tc.wantReserve)
			}
		})
	}
}

func TestInitializeKeepsExistingEntries(t *testing.T) {
	l := newEnergyLedger()
	cs := []community.Community{alpha, bravo}
	if n := l.initialize(cs, DefaultParams()); n != 2 {
		t.Fatalf("added %d, want 2", n)
	}
	if _, err := l.settle("alpha", "bravo", 100, decimal.NullDecimal{}); err != nil {
		t.Fatal(err)
	}
	if n := l.initialize(append(cs, charl), DefaultParams()); n != 1 {
		t.Fatalf("added %d, want 1", n)
	}
	if b, _ := l.balance("alpha"); b.Balance != 900 {
		t.Fatalf("re-initialize reset alpha to %d", b.Balance)
	}
}

func TestSettleGuards(t *testing.T) {
	l := newEnergyLedger()
	l.initialize([]community.Community{alpha, bravo}, DefaultParams())

	if _, err := l.settle("alpha", "bravo", 0, decimal.NullDecimal{}); CodeOf(err) != CodeValidation {
		t.Fatalf("zero quantity: %v", err)
	}
	if _, err := l.settle("alpha", "alpha", 5, decimal.NullDecimal{}); CodeOf(err) != CodeValidation {
		t.Fatalf("self settle: %v", err)
	}
	if _, err := l.settle("alpha", "nobody", 5, decimal.NullDecimal{}); CodeOf(err) != CodeLedgerMissing {
		t.Fatalf("missing buyer: %v", err)
	}
	if _, err := l.settle("alpha", "bravo", 801, decimal.NullDecimal{}); CodeOf(err) != CodeInsufficientFunds {
		t.Fatalf("overdraw: %v", err)
	}

	rec, err := l.settle("alpha", "bravo", 800, decimal.NullDecimal{})
	if err != nil {
		t.Fatalf("settle to reserve: %v", err)
	}
	if rec.TotalValue.Valid {
		t.Fatal("no price means no value")
	}
	if l.available("alpha") != 0 || l.total() != 1600 {
		t.Fatalf("available=%d total=%d", l.available("alpha"), l.total())
	}
}

func TestGetEnergyBalancesSorted(t *testing.T) {
	x := newTestExchange(t)
	bs := x.GetEnergyBalances()
	want := []string{"alpha", "bravo", "charlie", "delta"}
	if len(bs) != len(want) {
		t.Fatalf("got %d balances", len(bs))
	}
	for i, id := range want {
		if bs[i].CommunityID != id || bs[i].Unit != "kWh" || bs[i].Available != bs[i].Balance-bs[i].Reserve {
			t.Fatalf("balance %d = %+v", i, bs[i])
		}
	}
}
