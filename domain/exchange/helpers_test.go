package exchange

import (
	"time"

	"github.com/shopspring/decimal"

	"barter/domain/community"
	"barter/domain/geo"
)

// Communities laid out west to east along the equator, about 111 km apart
// per degree. Balances come from energy self-sufficiency × population × 0.05.
var (
	alpha = community.Community{ID: "alpha", Name: "Alpha", Coordinates: geo.Coordinates{Lat: 0, Lng: 0}, Population: 400, EnergySelfSufficiency: 50}    // 1000 / 200
	bravo = community.Community{ID: "bravo", Name: "Bravo", Coordinates: geo.Coordinates{Lat: 0, Lng: 1}, Population: 200, EnergySelfSufficiency: 60}    // 600 / 120
	charl = community.Community{ID: "charlie", Name: "Charlie", Coordinates: geo.Coordinates{Lat: 0, Lng: 2}, Population: 100, EnergySelfSufficiency: 10} // 500 / 100
	delta = community.Community{ID: "delta", Name: "Delta", Coordinates: geo.Coordinates{Lat: 0, Lng: 5}, Population: 1000, EnergySelfSufficiency: 40}  // 2000 / 400
)

// tb is the part of testing.TB that *rapid.T also provides.
type tb interface {
	Helper()
	Fatalf(format string, args ...any)
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestExchange(t tb, cs ...community.Community) *Exchange {
	t.Helper()
	if len(cs) == 0 {
		cs = []community.Community{alpha, bravo, charl, delta}
	}
	dir, err := community.NewStatic(cs...)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	clk := &fixedClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(dir, WithClock(clk.now))
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustBalance(t tb, x *Exchange, id string) Balance {
	t.Helper()
	b, err := x.GetCommunityEnergyBalance(id)
	if err != nil {
		t.Fatalf("balance %s: %v", id, err)
	}
	return b
}

func wantCode(t tb, err error, code Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := CodeOf(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}
