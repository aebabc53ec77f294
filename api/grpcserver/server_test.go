package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"barter/domain/community"
	"barter/domain/exchange"
	"barter/domain/geo"
	entrywal "barter/infra/wal/entry"
	"barter/service"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	dir, err := community.NewStatic(
		community.Community{ID: "alpha", Name: "Alpha", Coordinates: geo.Coordinates{Lat: 0, Lng: 0}, Population: 400, EnergySelfSufficiency: 50},
		community.Community{ID: "bravo", Name: "Bravo", Coordinates: geo.Coordinates{Lat: 0, Lng: 1}, Population: 200, EnergySelfSufficiency: 60},
	)
	if err != nil {
		t.Fatal(err)
	}
	w, err := entrywal.Open(entrywal.Config{Dir: t.TempDir(), SegmentSize: 1 << 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })

	log := zaptest.NewLogger(t)
	svc := service.NewExchangeService(service.Options{Directory: dir, EntryWAL: w, Logger: log})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor(log)))
	Register(srv, NewServer(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestServer_OfferRequestMatch(t *testing.T) {
	c := newTestClient(t)

	var offer OfferResponse
	err := c.Call(ctx(t), "OfferSurplus", &OfferSurplusRequest{
		CommunityID: "alpha", Resource: "food", Quantity: 50, Price: "2",
	}, &offer)
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if offer.Offer.Status != exchange.OfferActive || offer.Offer.Available != 50 {
		t.Fatalf("offer = %+v", offer.Offer)
	}

	var req RequestResponse
	err = c.Call(ctx(t), "RequestResource", &RequestResourceRequest{
		CommunityID: "bravo", Resource: "food", Quantity: 20, Urgency: "high",
	}, &req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Request.Status != exchange.RequestFulfilled || req.Request.Urgency != exchange.UrgencyHigh {
		t.Fatalf("request = %+v", req.Request)
	}

	var hist TradesResponse
	if err := c.Call(ctx(t), "GetTradeHistory", &LimitRequest{}, &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Trades) != 1 {
		t.Fatalf("trades = %d", len(hist.Trades))
	}
	tr := hist.Trades[0]
	if tr.FromCommunityID != "alpha" || tr.Quantity != 20 || !tr.TotalValue.Valid || tr.TotalValue.Decimal.String() != "40" {
		t.Fatalf("trade = %+v", tr)
	}

	var offers OffersResponse
	if err := c.Call(ctx(t), "GetActiveOffers", &ResourceFilter{Resource: "food"}, &offers); err != nil {
		t.Fatal(err)
	}
	if len(offers.Offers) != 1 || offers.Offers[0].Available != 30 {
		t.Fatalf("offers = %+v", offers.Offers)
	}

	var stats StatsResponse
	if err := c.Call(ctx(t), "GetTradeStats", &Empty{}, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Stats.TotalTrades != 1 || stats.Stats.MostTraded != exchange.ResourceFood {
		t.Fatalf("stats = %+v", stats.Stats)
	}
}

func TestServer_EnergyAndBalances(t *testing.T) {
	c := newTestClient(t)

	var rc ReceiptResponse
	err := c.Call(ctx(t), "SettleEnergyTransfer", &SettleEnergyTransferRequest{
		SellerID: "alpha", BuyerID: "bravo", Quantity: 100, PricePerUnit: "0.1",
	}, &rc)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if rc.Receipt.Transferred != 100 || rc.Receipt.Unit != "kWh" {
		t.Fatalf("receipt = %+v", rc.Receipt)
	}

	var bal BalanceResponse
	if err := c.Call(ctx(t), "GetCommunityEnergyBalance", &CommunityRequest{CommunityID: "bravo"}, &bal); err != nil {
		t.Fatal(err)
	}
	if bal.Balance.Balance != 700 || bal.Balance.Available != 580 {
		t.Fatalf("bravo = %+v", bal.Balance)
	}

	var all BalancesResponse
	if err := c.Call(ctx(t), "GetEnergyBalances", &Empty{}, &all); err != nil {
		t.Fatal(err)
	}
	if len(all.Balances) != 2 {
		t.Fatalf("balances = %+v", all.Balances)
	}

	var board LeaderboardResponse
	if err := c.Call(ctx(t), "GetLeaderboard", &LimitRequest{Limit: 1}, &board); err != nil {
		t.Fatal(err)
	}
	if len(board.Communities) != 1 || board.Communities[0].ID != "bravo" {
		t.Fatalf("leaderboard = %+v", board.Communities)
	}
}

func TestServer_ErrorMapping(t *testing.T) {
	c := newTestClient(t)

	cases := []struct {
		name   string
		method string
		in     any
		code   codes.Code
		reason exchange.Code
	}{
		{"unknown community", "OfferSurplus", &OfferSurplusRequest{CommunityID: "zulu", Resource: "water", Quantity: 1}, codes.NotFound, exchange.CodeNotFound},
		{"bad resource", "OfferSurplus", &OfferSurplusRequest{CommunityID: "alpha", Resource: "gold", Quantity: 1}, codes.InvalidArgument, exchange.CodeValidation},
		{"bad quantity", "RequestResource", &RequestResourceRequest{CommunityID: "alpha", Resource: "water", Quantity: 0}, codes.InvalidArgument, exchange.CodeValidation},
		{"bad price", "OfferSurplus", &OfferSurplusRequest{CommunityID: "alpha", Resource: "water", Quantity: 1, Price: "cheap"}, codes.InvalidArgument, exchange.CodeValidation},
		{"overdraft", "OfferEnergyCredits", &OfferEnergyCreditsRequest{CommunityID: "alpha", Quantity: 5000}, codes.FailedPrecondition, exchange.CodeInsufficientFunds},
		{"missing offer", "GetOffer", &IDRequest{ID: "nope"}, codes.NotFound, exchange.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out OfferResponse
			err := c.Call(ctx(t), tc.method, tc.in, &out)
			if status.Code(err) != tc.code {
				t.Fatalf("code = %v, want %v (%v)", status.Code(err), tc.code, err)
			}
			if got := CodeFromStatus(err); got != tc.reason {
				t.Fatalf("reason = %v, want %v", got, tc.reason)
			}
		})
	}
}
