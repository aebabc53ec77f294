package grpcserver

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "barter.v1.Exchange"

// ExchangeServer is the handler contract behind ServiceDesc.
type ExchangeServer interface {
	OfferSurplus(context.Context, *OfferSurplusRequest) (*OfferResponse, error)
	RequestResource(context.Context, *RequestResourceRequest) (*RequestResponse, error)
	OfferEnergyCredits(context.Context, *OfferEnergyCreditsRequest) (*OfferResponse, error)
	RequestEnergyCredits(context.Context, *RequestEnergyCreditsRequest) (*RequestResponse, error)
	ExecuteTrade(context.Context, *ExecuteTradeRequest) (*TradeResponse, error)
	SettleEnergyTransfer(context.Context, *SettleEnergyTransferRequest) (*ReceiptResponse, error)
	RunMatchingPass(context.Context, *RunMatchingPassRequest) (*TradesResponse, error)

	GetActiveOffers(context.Context, *ResourceFilter) (*OffersResponse, error)
	GetOpenRequests(context.Context, *ResourceFilter) (*RequestsResponse, error)
	GetCommunityOffers(context.Context, *CommunityFilter) (*OffersResponse, error)
	GetCommunityRequests(context.Context, *CommunityFilter) (*RequestsResponse, error)
	GetOffer(context.Context, *IDRequest) (*OfferResponse, error)
	GetRequest(context.Context, *IDRequest) (*RequestResponse, error)
	GetEnergyBalances(context.Context, *Empty) (*BalancesResponse, error)
	GetCommunityEnergyBalance(context.Context, *CommunityRequest) (*BalanceResponse, error)
	GetTradeStats(context.Context, *Empty) (*StatsResponse, error)
	GetTradeHistory(context.Context, *LimitRequest) (*TradesResponse, error)
	GetCommunityTrades(context.Context, *CommunityTradesRequest) (*TradesResponse, error)
	GetLeaderboard(context.Context, *LimitRequest) (*LeaderboardResponse, error)
}

func unary[Req, Resp any](name string, call func(ExchangeServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ExchangeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ExchangeServer), ctx, req.(*Req))
			})
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExchangeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("OfferSurplus", ExchangeServer.OfferSurplus),
		unary("RequestResource", ExchangeServer.RequestResource),
		unary("OfferEnergyCredits", ExchangeServer.OfferEnergyCredits),
		unary("RequestEnergyCredits", ExchangeServer.RequestEnergyCredits),
		unary("ExecuteTrade", ExchangeServer.ExecuteTrade),
		unary("SettleEnergyTransfer", ExchangeServer.SettleEnergyTransfer),
		unary("RunMatchingPass", ExchangeServer.RunMatchingPass),
		unary("GetActiveOffers", ExchangeServer.GetActiveOffers),
		unary("GetOpenRequests", ExchangeServer.GetOpenRequests),
		unary("GetCommunityOffers", ExchangeServer.GetCommunityOffers),
		unary("GetCommunityRequests", ExchangeServer.GetCommunityRequests),
		unary("GetOffer", ExchangeServer.GetOffer),
		unary("GetRequest", ExchangeServer.GetRequest),
		unary("GetEnergyBalances", ExchangeServer.GetEnergyBalances),
		unary("GetCommunityEnergyBalance", ExchangeServer.GetCommunityEnergyBalance),
		unary("GetTradeStats", ExchangeServer.GetTradeStats),
		unary("GetTradeHistory", ExchangeServer.GetTradeHistory),
		unary("GetCommunityTrades", ExchangeServer.GetCommunityTrades),
		unary("GetLeaderboard", ExchangeServer.GetLeaderboard),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "barter/v1/exchange",
}

func Register(s grpc.ServiceRegistrar, srv ExchangeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// -------------------- Client --------------------

// Client calls the exchange over a connection, always with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method (e.g. "OfferSurplus") with in and decodes into out.
func (c *Client) Call(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append(opts, grpc.CallContentSubtype(CodecName))
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}
