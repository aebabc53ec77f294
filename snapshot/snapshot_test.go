package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"barter/domain/exchange"
)

func TestLoad_Missing(t *testing.T) {
	s, err := Load(t.TempDir())
	if err != nil || s != nil {
		t.Fatalf("Load = %v, %v; want nil, nil", s, err)
	}
}

func TestWriteLoad(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}

	in := &Snapshot{
		Seq:     42,
		Created: time.Unix(1700000000, 0).UTC(),
		State: exchange.State{
			Ledger: []exchange.LedgerEntry{{CommunityID: "alpha", Balance: 900, Reserve: 200}},
			Offers: []exchange.Offer{{
				ID: "o1", Seq: 1, CommunityID: "alpha", Resource: exchange.ResourceWater,
				Quantity: 100, Available: 40, Price: decimal.RequireFromString("0.25"),
				Status: exchange.OfferActive,
			}},
			Trades: []exchange.Trade{{
				ID: "t1", Seq: 3, FromCommunityID: "alpha", ToCommunityID: "bravo",
				Resource: exchange.ResourceWater, Quantity: 60,
				CarbonCostKg: decimal.RequireFromString("0.67"),
			}},
			OfferSeq: 1,
		},
	}
	if err := w.Write(in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName+".tmp")); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}

	out, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.Seq != 42 || out.LastTradeSeq() != 3 {
		t.Fatalf("seq=%d lastTrade=%d", out.Seq, out.LastTradeSeq())
	}
	o := out.State.Offers[0]
	if o.Resource != exchange.ResourceWater || o.Available != 40 || !o.Price.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("offer = %+v", o)
	}
	if out.State.Trades[0].PricePerUnit.Valid {
		t.Fatal("absent price decoded as present")
	}

	// Overwrite keeps only the newest.
	in.Seq = 50
	if err := w.Write(in); err != nil {
		t.Fatal(err)
	}
	out, _ = Load(dir)
	if out.Seq != 50 {
		t.Fatalf("seq = %d, want 50", out.Seq)
	}
}

func TestLoad_Garbage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("not a snapshot"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error")
	}
}
