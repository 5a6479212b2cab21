// Package geo estimates travel between stations. It is deliberately coarse:
// great-circle distance at a fixed walking speed, with per-pair overrides for
// organizers who know better. It never fails — routing must always produce a plan.
package geo

import (
	"math"
	"time"
)

const (
	earthRadiusMeters = 6371000.0
	walkingSpeedKmh   = 5.0

	// Fallback estimates used when either station has no coordinates.
	fallbackDistanceMeters = 1000.0
	fallbackMinutes        = 10.0
)

// Transport modes inferred from an estimate.
const (
	ModeWalking         = "walking"
	ModeDriving         = "driving"
	ModePublicTransport = "public_transport"
)

// Point is a geographic coordinate. Stations without coordinates carry a nil Point.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Estimate is the travel estimate between two stations.
type Estimate struct {
	DistanceMeters float64
	Duration       time.Duration
	Mode           string
	Fallback       bool
}

// Override is a precomputed distance/time for an ordered station pair. It takes
// precedence over any computed estimate.
type Override struct {
	DistanceMeters float64
	Minutes        float64
}

// Estimator computes travel estimates, consulting overrides first.
type Estimator struct {
	overrides map[[2]string]Override
}

// NewEstimator builds an estimator from override rows keyed by ordered
// (from, to) station ID pairs. A nil map is fine.
func NewEstimator(overrides map[[2]string]Override) *Estimator {
	return &Estimator{overrides: overrides}
}

// Between estimates travel from one station to another. Missing coordinates on
// either side produce the fixed fallback rather than an error.
func (e *Estimator) Between(fromID, toID string, from, to *Point) Estimate {
	if o, ok := e.overrides[[2]string{fromID, toID}]; ok {
		d := time.Duration(o.Minutes * float64(time.Minute))
		return Estimate{
			DistanceMeters: o.DistanceMeters,
			Duration:       d,
			Mode:           inferMode(o.DistanceMeters, d),
		}
	}

	if from == nil || to == nil {
		d := time.Duration(fallbackMinutes * float64(time.Minute))
		return Estimate{
			DistanceMeters: fallbackDistanceMeters,
			Duration:       d,
			Mode:           inferMode(fallbackDistanceMeters, d),
			Fallback:       true,
		}
	}

	meters := Haversine(*from, *to)
	hours := meters / 1000 / walkingSpeedKmh
	d := time.Duration(hours * float64(time.Hour))
	return Estimate{
		DistanceMeters: meters,
		Duration:       d,
		Mode:           inferMode(meters, d),
	}
}

// Haversine returns the great-circle distance between two points in meters.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func inferMode(meters float64, d time.Duration) string {
	if meters < 2000 {
		return ModeWalking
	}
	if d > 30*time.Minute {
		return ModePublicTransport
	}
	return ModeDriving
}
