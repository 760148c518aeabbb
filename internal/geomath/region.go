package geomath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Region is an axis-aligned rectangle in degrees. It scopes both the
// region query and the containment test.
type Region struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Contains checks if a point is within the region, edges included.
// NaN coordinates are never contained.
func (r Region) Contains(p orb.Point) bool {
	lng, lat := p[0], p[1]
	return r.West <= lng && lng <= r.East && r.South <= lat && lat <= r.North
}

// Bound converts the region to an orb.Bound
func (r Region) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.West, r.South},
		Max: orb.Point{r.East, r.North},
	}
}

// Validate checks that the region is well ordered and within WGS84 range
func (r Region) Validate() error {
	if r.West > r.East {
		return fmt.Errorf("west (%f) must be <= east (%f)", r.West, r.East)
	}
	if r.South > r.North {
		return fmt.Errorf("south (%f) must be <= north (%f)", r.South, r.North)
	}
	if r.West < -180 || r.East > 180 {
		return fmt.Errorf("longitude out of range: %f,%f", r.West, r.East)
	}
	if r.South < -90 || r.North > 90 {
		return fmt.Errorf("latitude out of range: %f,%f", r.South, r.North)
	}
	return nil
}

// String formats the region as "west,south,east,north"
func (r Region) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", r.West, r.South, r.East, r.North)
}

// ParseRegion parses a region string in format "west,south,east,north"
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region must have 4 values: west,south,east,north")
	}

	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("invalid region coordinate %q: %w", p, err)
		}
		coords[i] = v
	}

	r := Region{West: coords[0], South: coords[1], East: coords[2], North: coords[3]}
	if err := r.Validate(); err != nil {
		return Region{}, err
	}
	return r, nil
}
