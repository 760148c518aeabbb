package proximity

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
)

func square(lng, lat, side float64) orb.Ring {
	return orb.Ring{{lng, lat}, {lng, lat + side}, {lng + side, lat + side}, {lng + side, lat}}
}

func TestIndexNearest(t *testing.T) {
	features := []feature.Feature{
		{ID: "way/1", Ring: square(0, 0, 0.001), Properties: feature.Properties{"leisure": "park"}},
		{ID: "way/2", Ring: square(0.1, 0, 0.001), Properties: feature.Properties{"landuse": "forest"}},
		{ID: "way/3", Ring: square(0.05, 0, 0.001), Properties: feature.Properties{"amenity": "parking"}},
	}

	idx := NewIndex(features)
	require.Equal(t, 2, idx.Len())

	p := orb.Point{0.0905, 0.0005}
	d, ok := idx.Nearest(p)
	require.True(t, ok)
	assert.InDelta(t, geomath.HaversineDistance(p, orb.Point{0.1005, 0.0005}), d, 1e-6)
}

func TestIndexEmpty(t *testing.T) {
	idx := NewIndex([]feature.Feature{{Ring: square(0, 0, 1), Properties: feature.Properties{"amenity": "cafe"}}})
	_, ok := idx.Nearest(orb.Point{0, 0})
	assert.False(t, ok)
}

func TestMeasure(t *testing.T) {
	features := []feature.Feature{
		{ID: "way/park", Ring: square(0, 0, 0.001), Properties: feature.Properties{"leisure": "park"}, Contained: true},
		{ID: "way/near", Ring: square(0.002, 0, 0.001), Properties: feature.Properties{"building:levels": "2"}, Contained: true},
		{ID: "way/far", Ring: square(0.02, 0, 0.001), Properties: feature.Properties{"building:levels": "2"}, Contained: true},
		{ID: "way/outside", Ring: square(0.003, 0, 0.001), Properties: feature.Properties{}, Contained: false},
	}

	distances, sum := Measure(features)

	assert.Len(t, distances, 2)
	assert.Less(t, distances["id:way/near"], WalkableDistance)
	assert.Greater(t, distances["id:way/far"], WalkableDistance)
	_, hasPark := distances["id:way/park"]
	assert.False(t, hasPark, "green spaces are not measured against themselves")

	assert.Equal(t, 2, sum.Measured)
	assert.Equal(t, 1, sum.Near)
	assert.InDelta(t, (distances["id:way/near"]+distances["id:way/far"])/2, sum.MeanDistance, 1e-9)
	assert.Equal(t, distances["id:way/far"], sum.MaxDistance)
}
