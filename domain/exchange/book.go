package exchange

import "sort"

type bookKey struct {
	resource  Resource
	community string
}

// -------------------- OfferBook --------------------

// OfferBook keeps live offers per resource in arrival order, with a
// secondary (resource, community) index. Fulfilled offers are dropped on
// compact.
type OfferBook struct {
	byID       map[string]*Offer
	byResource map[Resource][]*Offer
	byKey      map[bookKey][]*Offer
}

func newOfferBook() *OfferBook {
	return &OfferBook{
		byID:       make(map[string]*Offer),
		byResource: make(map[Resource][]*Offer),
		byKey:      make(map[bookKey][]*Offer),
	}
}

func (b *OfferBook) add(o *Offer) {
	b.byID[o.ID] = o
	b.byResource[o.Resource] = append(b.byResource[o.Resource], o)
	k := bookKey{o.Resource, o.CommunityID}
	b.byKey[k] = append(b.byKey[k], o)
}

func (b *OfferBook) get(id string) (*Offer, bool) {
	o, ok := b.byID[id]
	return o, ok
}

// forResource is the live slice in arrival order; callers must not keep it
// across a compact.
func (b *OfferBook) forResource(r Resource) []*Offer {
	return b.byResource[r]
}

// active copies open offers, optionally filtered by resource
// (ResourceUnknown means all), in arrival order.
func (b *OfferBook) active(r Resource) []Offer {
	var out []Offer
	for res, list := range b.byResource {
		if r != ResourceUnknown && res != r {
			continue
		}
		for _, o := range list {
			if o.open() {
				out = append(out, *o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (b *OfferBook) ofCommunity(communityID string, r Resource) []Offer {
	var out []Offer
	for _, o := range b.byKey[bookKey{r, communityID}] {
		if o.open() {
			out = append(out, *o)
		}
	}
	return out
}

func (b *OfferBook) compact() {
	for r, list := range b.byResource {
		b.byResource[r] = keepOffers(list)
		if len(b.byResource[r]) == 0 {
			delete(b.byResource, r)
		}
	}
	for k, list := range b.byKey {
		b.byKey[k] = keepOffers(list)
		if len(b.byKey[k]) == 0 {
			delete(b.byKey, k)
		}
	}
	for id, o := range b.byID {
		if !o.open() {
			delete(b.byID, id)
		}
	}
}

func keepOffers(list []*Offer) []*Offer {
	out := list[:0]
	for _, o := range list {
		if o.open() {
			out = append(out, o)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}

// -------------------- RequestBook --------------------

// RequestBook keeps open requests in global creation order; that order is
// the order a matching pass serves them in.
type RequestBook struct {
	byID  map[string]*Request
	order []*Request
	byKey map[bookKey][]*Request
}

func newRequestBook() *RequestBook {
	return &RequestBook{
		byID:  make(map[string]*Request),
		byKey: make(map[bookKey][]*Request),
	}
}

func (b *RequestBook) add(r *Request) {
	b.byID[r.ID] = r
	b.order = append(b.order, r)
	k := bookKey{r.Resource, r.CommunityID}
	b.byKey[k] = append(b.byKey[k], r)
}

func (b *RequestBook) get(id string) (*Request, bool) {
	r, ok := b.byID[id]
	return r, ok
}

func (b *RequestBook) inOrder() []*Request {
	return b.order
}

func (b *RequestBook) open(res Resource) []Request {
	var out []Request
	for _, r := range b.order {
		if r.open() && (res == ResourceUnknown || r.Resource == res) {
			out = append(out, *r)
		}
	}
	return out
}

func (b *RequestBook) ofCommunity(communityID string, res Resource) []Request {
	var out []Request
	for _, r := range b.byKey[bookKey{res, communityID}] {
		if r.open() {
			out = append(out, *r)
		}
	}
	return out
}

func (b *RequestBook) compact() {
	b.order = keepRequests(b.order)
	for k, list := range b.byKey {
		b.byKey[k] = keepRequests(list)
		if len(b.byKey[k]) == 0 {
			delete(b.byKey, k)
		}
	}
	for id, r := range b.byID {
		if !r.open() {
			delete(b.byID, id)
		}
	}
}

func keepRequests(list []*Request) []*Request {
	out := list[:0]
	for _, r := range list {
		if r.open() {
			out = append(out, r)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}
