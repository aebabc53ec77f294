package exchange

import (
	"time"

	"github.com/shopspring/decimal"
)

// Offer is a community's declared surplus. Available only ever decreases;
// Fulfilled is terminal.
type Offer struct {
	ID          string          `json:"id"`
	Seq         uint64          `json:"seq"`
	CommunityID string          `json:"communityId"`
	Resource    Resource        `json:"resource"`
	Quantity    int64           `json:"quantity"`
	Available   int64           `json:"available"`
	Price       decimal.Decimal `json:"price"`
	Status      OfferStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func (o *Offer) open() bool {
	return o.Status == OfferActive && o.Available > 0
}

func (o *Offer) fill(q int64) {
	o.Available -= q
	if o.Available == 0 {
		o.Status = OfferFulfilled
	}
}

// Request is a community's declared need. Quantity is what is still
// missing; Requested is what was originally asked for.
type Request struct {
	ID          string        `json:"id"`
	Seq         uint64        `json:"seq"`
	CommunityID string        `json:"communityId"`
	Resource    Resource      `json:"resource"`
	Quantity    int64         `json:"quantity"`
	Requested   int64         `json:"requested"`
	Urgency     Urgency       `json:"urgency"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func (r *Request) open() bool {
	return r.Status == RequestOpen && r.Quantity > 0
}

func (r *Request) fill(q int64) {
	r.Quantity -= q
	if r.Quantity == 0 {
		r.Status = RequestFulfilled
	}
}

// Trade is immutable once appended to the TradeLedger.
type Trade struct {
	ID              string              `json:"id"`
	Seq             uint64              `json:"seq"`
	FromCommunityID string              `json:"fromCommunityId"`
	ToCommunityID   string              `json:"toCommunityId"`
	Resource        Resource            `json:"resource"`
	Quantity        int64               `json:"quantity"`
	DistanceKm      float64             `json:"distanceKm"`
	CarbonCostKg    decimal.Decimal     `json:"carbonCostKg"`
	PricePerUnit    decimal.NullDecimal `json:"pricePerUnit"`
	TotalValue      decimal.NullDecimal `json:"totalValue"`
	Timestamp       time.Time           `json:"timestamp"`
}

// Receipt is the outcome of an energy settlement.
type Receipt struct {
	SellerID     string              `json:"sellerId"`
	BuyerID      string              `json:"buyerId"`
	Transferred  int64               `json:"transferred"`
	Unit         string              `json:"unit"`
	PricePerUnit decimal.NullDecimal `json:"pricePerUnit"`
	TotalValue   decimal.NullDecimal `json:"totalValue"`
}

func totalValue(price decimal.NullDecimal, quantity int64) decimal.NullDecimal {
	if !price.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(price.Decimal.Mul(decimal.NewFromInt(quantity)).Round(2))
}
