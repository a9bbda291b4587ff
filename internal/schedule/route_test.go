package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeRouteOrdersByProximity(t *testing.T) {
	// Four Pune localities, seeded far from geographic order.
	baner := RouteStop{PropertyID: "baner", Lat: 18.5590, Lng: 73.7868}
	wakad := RouteStop{PropertyID: "wakad", Lat: 18.5975, Lng: 73.7898}
	hinjewadi := RouteStop{PropertyID: "hinjewadi", Lat: 18.5913, Lng: 73.7389}
	kothrud := RouteStop{PropertyID: "kothrud", Lat: 18.5074, Lng: 73.8077}

	ordered := OptimizeRoute([]RouteStop{baner, kothrud, hinjewadi, wakad})

	require.Len(t, ordered, 4)
	assert.Equal(t, "baner", ordered[0].PropertyID)
	// From Baner the closest is Wakad, then Hinjewadi; Kothrud is last.
	assert.Equal(t, "wakad", ordered[1].PropertyID)
	assert.Equal(t, "hinjewadi", ordered[2].PropertyID)
	assert.Equal(t, "kothrud", ordered[3].PropertyID)
}

func TestOptimizeRouteSmallInputsUnchanged(t *testing.T) {
	assert.Empty(t, OptimizeRoute(nil))

	two := []RouteStop{{PropertyID: "a"}, {PropertyID: "b"}}
	assert.Equal(t, two, OptimizeRoute(two))
}

func TestHaversineKnownDistance(t *testing.T) {
	// Pune to Mumbai is roughly 120 km as the crow flies.
	pune := RouteStop{Lat: 18.5204, Lng: 73.8567}
	mumbai := RouteStop{Lat: 19.0760, Lng: 72.8777}

	d := haversineKm(pune, mumbai)
	assert.InDelta(t, 120, d, 10)
}
