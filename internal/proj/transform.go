package proj

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// SRID constants for the supported projections
const (
	SRID4326 = 4326 // WGS84 (lat/lon)
	SRID3857 = 3857 // Web Mercator
)

// Web Mercator constants
const (
	// Semi-major axis of WGS84 ellipsoid in meters
	earthRadius = 6378137.0
	// Maximum extent of Web Mercator
	maxExtent = 20037508.342789244
	// Latitude limit of the projection
	maxLat = 85.06
)

// ToWebMercator converts a WGS84 (lon, lat) point to Web Mercator (x, y) meters
func ToWebMercator(p orb.Point) orb.Point {
	lon, lat := p[0], p[1]

	// Clamp latitude to avoid infinity at poles
	if lat > maxLat {
		lat = maxLat
	} else if lat < -maxLat {
		lat = -maxLat
	}

	x := lon * maxExtent / 180.0

	// y = R * ln(tan(π/4 + φ/2))
	latRad := lat * math.Pi / 180.0
	y := math.Log(math.Tan(math.Pi/4.0+latRad/2.0)) * earthRadius

	return orb.Point{x, y}
}

// ProjectRing returns a Web Mercator copy of the ring
func ProjectRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[i] = ToWebMercator(p)
	}
	return out
}

// MercatorArea returns the planar area of a polygon in EPSG:3857 square meters.
// Web Mercator inflates areas by roughly 1/cos²(lat); this matches what
// GIS tools report for the projected layer, not the true ground area.
func MercatorArea(poly orb.Polygon) float64 {
	projected := make(orb.Polygon, len(poly))
	for i, r := range poly {
		projected[i] = ProjectRing(r)
	}
	return planar.Area(projected)
}
