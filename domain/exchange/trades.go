package exchange

import "sort"

// TradeLedger is the append-only record of executed trades.
type TradeLedger struct {
	trades []Trade
	next   uint64
}

func newTradeLedger() *TradeLedger {
	return &TradeLedger{}
}

// nextSeq reserves the sequence for the trade about to be appended.
func (l *TradeLedger) nextSeq() uint64 {
	return l.next + 1
}

func (l *TradeLedger) append(t Trade) {
	l.next = t.Seq
	l.trades = append(l.trades, t)
}

func (l *TradeLedger) len() int {
	return len(l.trades)
}

// recent returns up to limit trades, newest timestamp first. Trades with
// equal timestamps come back latest-appended first. limit <= 0 means all.
func (l *TradeLedger) recent(limit int) []Trade {
	out := make([]Trade, len(l.trades))
	for i, t := range l.trades {
		out[len(out)-1-i] = t
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
