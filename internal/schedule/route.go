package schedule

import (
	"math"

	"github.com/google/uuid"
)

// RouteStop is one appointment with the coordinates of its property.
type RouteStop struct {
	AppointmentID uuid.UUID
	PropertyID    string
	Lat           float64
	Lng           float64
}

// OptimizeRoute orders a day's visits with a nearest-neighbor heuristic:
// start from the first stop, then repeatedly pick the closest unvisited one.
// Greedy, not globally optimal — fine for a small daily list.
func OptimizeRoute(stops []RouteStop) []RouteStop {
	if len(stops) <= 2 {
		return stops
	}

	ordered := make([]RouteStop, 0, len(stops))
	remaining := make([]RouteStop, len(stops)-1)
	copy(remaining, stops[1:])
	ordered = append(ordered, stops[0])

	for len(remaining) > 0 {
		last := ordered[len(ordered)-1]
		best := 0
		bestDist := haversineKm(last, remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := haversineKm(last, remaining[i]); d < bestDist {
				best = i
				bestDist = d
			}
		}
		ordered = append(ordered, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}

const earthRadiusKm = 6371.0

func haversineKm(a, b RouteStop) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}
