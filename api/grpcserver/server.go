package grpcserver

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"barter/domain/exchange"
	"barter/service"
)

// Server adapts ExchangeService to gRPC.
type Server struct {
	svc *service.ExchangeService
}

func NewServer(svc *service.ExchangeService) *Server {
	return &Server{svc: svc}
}

// LoggingInterceptor logs every unary call with its outcome.
func LoggingInterceptor(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("took", time.Since(start)),
		}
		if err != nil {
			log.Info("call failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("call", fields...)
		}
		return resp, err
	}
}

// -------------------- Commands --------------------

func (s *Server) OfferSurplus(ctx context.Context, req *OfferSurplusRequest) (*OfferResponse, error) {
	r, err := exchange.ParseResource(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, toStatus(err)
	}
	o, err := s.svc.OfferSurplus(ctx, req.CommunityID, r, req.Quantity, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OfferResponse{Offer: o}, nil
}

func (s *Server) RequestResource(ctx context.Context, req *RequestResourceRequest) (*RequestResponse, error) {
	r, err := exchange.ParseResource(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	u, err := exchange.ParseUrgency(req.Urgency)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.RequestResource(ctx, req.CommunityID, r, req.Quantity, u)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RequestResponse{Request: out}, nil
}

func (s *Server) OfferEnergyCredits(ctx context.Context, req *OfferEnergyCreditsRequest) (*OfferResponse, error) {
	price, err := parsePrice(req.Price)
	if err != nil {
		return nil, toStatus(err)
	}
	o, err := s.svc.OfferEnergyCredits(ctx, req.CommunityID, req.Quantity, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OfferResponse{Offer: o}, nil
}

func (s *Server) RequestEnergyCredits(ctx context.Context, req *RequestEnergyCreditsRequest) (*RequestResponse, error) {
	u, err := exchange.ParseUrgency(req.Urgency)
	if err != nil {
		return nil, toStatus(err)
	}
	out, err := s.svc.RequestEnergyCredits(ctx, req.CommunityID, req.Quantity, u)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RequestResponse{Request: out}, nil
}

func (s *Server) ExecuteTrade(ctx context.Context, req *ExecuteTradeRequest) (*TradeResponse, error) {
	r, err := exchange.ParseResource(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	price, err := parseOptionalPrice(req.PricePerUnit)
	if err != nil {
		return nil, toStatus(err)
	}
	t, err := s.svc.ExecuteTrade(ctx, req.FromCommunityID, req.ToCommunityID, r, req.Quantity, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TradeResponse{Trade: t}, nil
}

func (s *Server) SettleEnergyTransfer(ctx context.Context, req *SettleEnergyTransferRequest) (*ReceiptResponse, error) {
	price, err := parseOptionalPrice(req.PricePerUnit)
	if err != nil {
		return nil, toStatus(err)
	}
	rc, err := s.svc.SettleEnergyTransfer(ctx, req.SellerID, req.BuyerID, req.Quantity, price)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReceiptResponse{Receipt: rc}, nil
}

func (s *Server) RunMatchingPass(ctx context.Context, _ *RunMatchingPassRequest) (*TradesResponse, error) {
	trades, err := s.svc.RunMatchingPass(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TradesResponse{Trades: trades}, nil
}

// -------------------- Queries --------------------

func (s *Server) GetActiveOffers(_ context.Context, req *ResourceFilter) (*OffersResponse, error) {
	r, err := parseFilter(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OffersResponse{Offers: s.svc.GetActiveOffers(r)}, nil
}

func (s *Server) GetOpenRequests(_ context.Context, req *ResourceFilter) (*RequestsResponse, error) {
	r, err := parseFilter(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RequestsResponse{Requests: s.svc.GetOpenRequests(r)}, nil
}

func (s *Server) GetCommunityOffers(_ context.Context, req *CommunityFilter) (*OffersResponse, error) {
	r, err := exchange.ParseResource(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OffersResponse{Offers: s.svc.GetCommunityOffers(req.CommunityID, r)}, nil
}

func (s *Server) GetCommunityRequests(_ context.Context, req *CommunityFilter) (*RequestsResponse, error) {
	r, err := exchange.ParseResource(req.Resource)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RequestsResponse{Requests: s.svc.GetCommunityRequests(req.CommunityID, r)}, nil
}

func (s *Server) GetOffer(_ context.Context, req *IDRequest) (*OfferResponse, error) {
	o, err := s.svc.GetOffer(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &OfferResponse{Offer: o}, nil
}

func (s *Server) GetRequest(_ context.Context, req *IDRequest) (*RequestResponse, error) {
	r, err := s.svc.GetRequest(req.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RequestResponse{Request: r}, nil
}

func (s *Server) GetEnergyBalances(context.Context, *Empty) (*BalancesResponse, error) {
	return &BalancesResponse{Balances: s.svc.GetEnergyBalances()}, nil
}

func (s *Server) GetCommunityEnergyBalance(_ context.Context, req *CommunityRequest) (*BalanceResponse, error) {
	b, err := s.svc.GetCommunityEnergyBalance(req.CommunityID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &BalanceResponse{Balance: b}, nil
}

func (s *Server) GetTradeStats(context.Context, *Empty) (*StatsResponse, error) {
	return &StatsResponse{Stats: s.svc.GetTradeStats()}, nil
}

func (s *Server) GetTradeHistory(_ context.Context, req *LimitRequest) (*TradesResponse, error) {
	return &TradesResponse{Trades: s.svc.GetTradeHistory(req.Limit)}, nil
}

func (s *Server) GetCommunityTrades(ctx context.Context, req *CommunityTradesRequest) (*TradesResponse, error) {
	trades, err := s.svc.GetCommunityTrades(ctx, req.CommunityID, req.Limit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &TradesResponse{Trades: trades}, nil
}

func (s *Server) GetLeaderboard(_ context.Context, req *LimitRequest) (*LeaderboardResponse, error) {
	return &LeaderboardResponse{Communities: s.svc.GetSelfSufficiencyLeaderboard(req.Limit)}, nil
}

// -------------------- Converters --------------------

func parseFilter(s string) (exchange.Resource, error) {
	if s == "" {
		return exchange.ResourceUnknown, nil
	}
	return exchange.ParseResource(s)
}

func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, &exchange.Error{
			Code:     exchange.CodeValidation,
			Message:  "price is not a decimal number",
			Metadata: map[string]string{"price": s},
		}
	}
	return d, nil
}

func parseOptionalPrice(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parsePrice(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
