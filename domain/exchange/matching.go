package exchange

import (
	"sort"

	"github.com/shopspring/decimal"

	"barter/domain/geo"
)

type candidate struct {
	offer    *Offer
	distance float64
}

/*
matchLocked runs one greedy, nearest-first matching pass.

Rules:
- requests are served in creation order, never re-sorted
- candidates are active offers of the same resource from another community,
  ordered by distance to the requester; equal distances keep arrival order
- energy transfers are capped by the seller's ledger availability at the
  moment of matching, so a depleted seller gives what it can and the
  remainder falls through to the next candidate
- zero-quantity transfers are skipped and never produce a trade

Caller must hold x.mu.
*/
func (x *Exchange) matchLocked() []Trade {
	var out []Trade

	for _, req := range x.requests.inOrder() {
		if !req.open() {
			continue
		}
		buyer, ok := x.dir.Lookup(req.CommunityID)
		if !ok {
			continue
		}

		for _, c := range x.candidates(req, buyer.Coordinates) {
			if req.Quantity == 0 {
				break
			}
			o := c.offer

			transfer := min(o.Available, req.Quantity)
			if req.Resource == ResourceEnergy {
				transfer = min(transfer, x.ledger.available(o.CommunityID))
			}
			if transfer <= 0 {
				continue
			}

			t, err := x.executeLocked(o.CommunityID, req.CommunityID, req.Resource, transfer, decimal.NewNullDecimal(o.Price))
			if err != nil {
				// leave both sides untouched; a later pass may succeed
				continue
			}
			o.fill(transfer)
			req.fill(transfer)
			out = append(out, t)
		}
	}

	if len(out) > 0 {
		x.offers.compact()
		x.requests.compact()
	}
	return out
}

func (x *Exchange) candidates(req *Request, at geo.Coordinates) []candidate {
	var cs []candidate
	for _, o := range x.offers.forResource(req.Resource) {
		if !o.open() || o.CommunityID == req.CommunityID {
			continue
		}
		seller, ok := x.dir.Lookup(o.CommunityID)
		if !ok {
			continue
		}
		cs = append(cs, candidate{
			offer:    o,
			distance: geo.DistanceKm(at, seller.Coordinates),
		})
	}
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].distance < cs[j].distance
	})
	return cs
}
