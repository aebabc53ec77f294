package grpcserver

import (
	"barter/domain/community"
	"barter/domain/exchange"
)

// -------------------- Commands --------------------

type OfferSurplusRequest struct {
	CommunityID string `json:"communityId"`
	Resource    string `json:"resource"`
	Quantity    int64  `json:"quantity"`
	Price       string `json:"price,omitempty"`
}

type RequestResourceRequest struct {
	CommunityID string `json:"communityId"`
	Resource    string `json:"resource"`
	Quantity    int64  `json:"quantity"`
	Urgency     string `json:"urgency,omitempty"`
}

type OfferEnergyCreditsRequest struct {
	CommunityID string `json:"communityId"`
	Quantity    int64  `json:"quantity"`
	Price       string `json:"price,omitempty"`
}

type RequestEnergyCreditsRequest struct {
	CommunityID string `json:"communityId"`
	Quantity    int64  `json:"quantity"`
	Urgency     string `json:"urgency,omitempty"`
}

type ExecuteTradeRequest struct {
	FromCommunityID string `json:"fromCommunityId"`
	ToCommunityID   string `json:"toCommunityId"`
	Resource        string `json:"resource"`
	Quantity        int64  `json:"quantity"`
	PricePerUnit    string `json:"pricePerUnit,omitempty"`
}

type SettleEnergyTransferRequest struct {
	SellerID     string `json:"sellerId"`
	BuyerID      string `json:"buyerId"`
	Quantity     int64  `json:"quantity"`
	PricePerUnit string `json:"pricePerUnit,omitempty"`
}

type RunMatchingPassRequest struct{}

type OfferResponse struct {
	Offer exchange.Offer `json:"offer"`
}

type RequestResponse struct {
	Request exchange.Request `json:"request"`
}

type TradeResponse struct {
	Trade exchange.Trade `json:"trade"`
}

type ReceiptResponse struct {
	Receipt exchange.Receipt `json:"receipt"`
}

type TradesResponse struct {
	Trades []exchange.Trade `json:"trades"`
}

// -------------------- Queries --------------------

// ResourceFilter selects one resource; empty means all.
type ResourceFilter struct {
	Resource string `json:"resource,omitempty"`
}

type CommunityFilter struct {
	CommunityID string `json:"communityId"`
	Resource    string `json:"resource"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type CommunityRequest struct {
	CommunityID string `json:"communityId"`
}

type LimitRequest struct {
	Limit int `json:"limit,omitempty"`
}

type CommunityTradesRequest struct {
	CommunityID string `json:"communityId"`
	Limit       int    `json:"limit,omitempty"`
}

type Empty struct{}

type OffersResponse struct {
	Offers []exchange.Offer `json:"offers"`
}

type RequestsResponse struct {
	Requests []exchange.Request `json:"requests"`
}

type BalanceResponse struct {
	Balance exchange.Balance `json:"balance"`
}

type BalancesResponse struct {
	Balances []exchange.Balance `json:"balances"`
}

type StatsResponse struct {
	Stats exchange.TradeStats `json:"stats"`
}

type LeaderboardResponse struct {
	Communities []community.Community `json:"communities"`
}
