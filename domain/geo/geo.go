// Package geo holds the distance and transport-carbon model used to rank
// and price inter-community transfers. Everything here is pure.
package geo

import (
	"math"

	"github.com/shopspring/decimal"
)

const earthRadiusKm = 6371.0

// DefaultCarbonFactor is kg CO2 per unit of resource per km moved.
// It is resource-agnostic.
const DefaultCarbonFactor = 0.0001

type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceKm returns the great-circle (haversine) distance between a and b.
func DistanceKm(a, b Coordinates) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// CarbonCostKg is round(distance × quantity × factor, 2).
func CarbonCostKg(distanceKm float64, quantity int64, factor float64) decimal.Decimal {
	return decimal.NewFromFloat(distanceKm).
		Mul(decimal.NewFromInt(quantity)).
		Mul(decimal.NewFromFloat(factor)).
		Round(2)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
