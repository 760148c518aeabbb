package geomath

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadius is the WGS84 semi-major axis in meters, shared by area and distance
const EarthRadius = 6378137.0

// OutlierThreshold is the area (m²) above which a feature is treated as a data error
const OutlierThreshold = 1000000.0

const degToRad = math.Pi / 180.0

// Area estimates the area of a ring in square meters.
//
// Vertices are projected onto a local equirectangular plane anchored at the
// first vertex, with longitude scaled by the cosine of the mean latitude of
// each edge. The shoelace sum runs over coordinates[i] -> coordinates[i+1]
// for i in [0, n-2]; an unclosed ring gets no extra closing edge. Because the
// plane is anchored at the first vertex, that closing edge would contribute
// zero anyway, so open and closed rings yield the same value.
//
// The result intentionally differs from projecting absolute coordinates with
// the same formula. That variant carries the full distance from (0, 0) into
// every cross product, so it drifts badly away from the equator and explodes
// for open rings.
//
// Rings with fewer than 3 vertices return 0.
func Area(ring orb.Ring) float64 {
	if len(ring) < 3 {
		return 0
	}

	origin := ring[0]
	var sum float64

	for i := 0; i < len(ring)-1; i++ {
		lng1, lat1 := ring[i][0], ring[i][1]
		lng2, lat2 := ring[i+1][0], ring[i+1][1]

		scale := math.Cos((lat1 + lat2) / 2 * degToRad)

		x1 := (lng1 - origin[0]) * degToRad * EarthRadius * scale
		y1 := (lat1 - origin[1]) * degToRad * EarthRadius
		x2 := (lng2 - origin[0]) * degToRad * EarthRadius * scale
		y2 := (lat2 - origin[1]) * degToRad * EarthRadius

		sum += x1*y2 - x2*y1
	}

	return math.Abs(sum / 2)
}

// HaversineDistance returns the great-circle distance between two points in meters
func HaversineDistance(a, b orb.Point) float64 {
	// orb.EarthRadius is the same 6378137 m constant
	return geo.DistanceHaversine(a, b)
}

// Centroid returns the arithmetic mean of all ring vertices.
// It is not area weighted, so rings with uneven vertex density are biased
// toward their densest stretch. Returns false for an empty ring.
func Centroid(ring orb.Ring) (orb.Point, bool) {
	if len(ring) == 0 {
		return orb.Point{}, false
	}

	var xSum, ySum float64
	for _, p := range ring {
		xSum += p[0]
		ySum += p[1]
	}

	n := float64(len(ring))
	return orb.Point{xSum / n, ySum / n}, true
}

// IsFullyWithin reports whether every vertex of the ring lies inside the region.
// Edges are inclusive. An empty ring is never contained.
func IsFullyWithin(ring orb.Ring, region Region) bool {
	if len(ring) == 0 {
		return false
	}
	for _, p := range ring {
		if !region.Contains(p) {
			return false
		}
	}
	return true
}
