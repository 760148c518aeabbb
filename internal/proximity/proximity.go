// Package proximity measures how far contained features are from the
// nearest green space, using an R-tree of green space centroids.
package proximity

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
)

const (
	tolerance   = 1e-9
	minChildren = 4
	maxChildren = 16
	dimensions  = 2

	// candidates pulled from the tree before the haversine check,
	// since planar degree distance does not order great-circle distance exactly
	candidates = 8
)

// WalkableDistance is the distance (m) under which a green space counts as near
const WalkableDistance = 500.0

type greenCentroid struct {
	point orb.Point
	rect  *rtreego.Rect
}

func (g *greenCentroid) Bounds() *rtreego.Rect {
	return g.rect
}

// Index answers nearest green space queries
type Index struct {
	tree  *rtreego.Rtree
	count int
}

// NewIndex indexes the centroids of every feature passing classify.IsGreenSpace
func NewIndex(features []feature.Feature) *Index {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}

	for _, f := range features {
		if !classify.IsGreenSpace(f.Properties) {
			continue
		}
		c, ok := geomath.Centroid(f.Ring)
		if !ok || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
			continue
		}
		idx.tree.Insert(&greenCentroid{
			point: c,
			rect:  rtreego.Point{c[0], c[1]}.ToRect(tolerance),
		})
		idx.count++
	}

	return idx
}

// Len returns the number of indexed green spaces
func (idx *Index) Len() int {
	return idx.count
}

// Nearest returns the great-circle distance in meters from p to the closest
// green space centroid. Returns false when the index is empty.
func (idx *Index) Nearest(p orb.Point) (float64, bool) {
	if idx.count == 0 {
		return 0, false
	}

	best := math.Inf(1)
	for _, s := range idx.tree.NearestNeighbors(candidates, rtreego.Point{p[0], p[1]}) {
		g, ok := s.(*greenCentroid)
		if !ok || g == nil {
			continue
		}
		if d := geomath.HaversineDistance(p, g.point); d < best {
			best = d
		}
	}

	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// Summary aggregates proximity over the contained features
type Summary struct {
	Measured     int     `json:"measured"`
	Near         int     `json:"near"` // within WalkableDistance
	MeanDistance float64 `json:"meanDistanceM"`
	MaxDistance  float64 `json:"maxDistanceM"`
}

// Measure computes the nearest green space distance for every contained,
// non-green feature. The result is keyed by feature.Key.
func Measure(features []feature.Feature) (map[string]float64, Summary) {
	idx := NewIndex(features)
	distances := make(map[string]float64)
	var sum Summary
	var total float64

	for _, f := range features {
		if !f.Contained || !f.Finite() || classify.IsGreenSpace(f.Properties) {
			continue
		}
		c, ok := geomath.Centroid(f.Ring)
		if !ok {
			continue
		}
		d, ok := idx.Nearest(c)
		if !ok {
			continue
		}

		distances[feature.Key(f)] = d
		sum.Measured++
		total += d
		if d <= WalkableDistance {
			sum.Near++
		}
		if d > sum.MaxDistance {
			sum.MaxDistance = d
		}
	}

	if sum.Measured > 0 {
		sum.MeanDistance = total / float64(sum.Measured)
	}
	return distances, sum
}
