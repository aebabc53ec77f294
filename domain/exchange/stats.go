package exchange

import "github.com/shopspring/decimal"

type ResourceStats struct {
	Trades       int             `json:"trades"`
	Volume       int64           `json:"volume"`
	CarbonCostKg decimal.Decimal `json:"carbonCostKg"`
}

type TradeStats struct {
	TotalTrades       int                        `json:"totalTrades"`
	TotalVolume       int64                      `json:"totalVolume"`
	TotalValue        decimal.Decimal            `json:"totalValue"`
	AverageDistanceKm decimal.Decimal            `json:"averageDistanceKm"`
	TotalCarbonCostKg decimal.Decimal            `json:"totalCarbonCostKg"`
	ByResource        map[Resource]ResourceStats `json:"byResource"`
	// MostTraded is the resource with the highest volume, ResourceUnknown
	// when nothing has traded. Ties go to the earlier declared resource.
	MostTraded Resource `json:"mostTraded"`
}

func aggregate(trades []Trade) TradeStats {
	s := TradeStats{
		TotalValue:        decimal.Zero,
		AverageDistanceKm: decimal.Zero,
		TotalCarbonCostKg: decimal.Zero,
		ByResource:        make(map[Resource]ResourceStats),
	}
	var distance float64
	for _, t := range trades {
		s.TotalTrades++
		s.TotalVolume += t.Quantity
		s.TotalCarbonCostKg = s.TotalCarbonCostKg.Add(t.CarbonCostKg)
		if t.TotalValue.Valid {
			s.TotalValue = s.TotalValue.Add(t.TotalValue.Decimal)
		}
		distance += t.DistanceKm

		rs := s.ByResource[t.Resource]
		rs.Trades++
		rs.Volume += t.Quantity
		rs.CarbonCostKg = rs.CarbonCostKg.Add(t.CarbonCostKg)
		s.ByResource[t.Resource] = rs
	}
	if s.TotalTrades > 0 {
		s.AverageDistanceKm = decimal.NewFromFloat(distance / float64(s.TotalTrades)).Round(2)
	}

	var best int64
	for _, r := range Resources() {
		if v := s.ByResource[r].Volume; v > best {
			best = v
			s.MostTraded = r
		}
	}
	return s
}
