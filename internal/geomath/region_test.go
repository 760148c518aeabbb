package geomath

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRegion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Region
		wantErr bool
	}{
		{"monaco", "7.409,43.724,7.440,43.752", Region{7.409, 43.724, 7.440, 43.752}, false},
		{"spaces", " -0.1 , 51.5 , 0.0 , 51.6 ", Region{-0.1, 51.5, 0, 51.6}, false},
		{"too few values", "1,2,3", Region{}, true},
		{"not a number", "a,2,3,4", Region{}, true},
		{"west after east", "2,0,1,1", Region{}, true},
		{"south after north", "0,2,1,1", Region{}, true},
		{"latitude out of range", "0,-91,1,1", Region{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRegion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegionBoundAndString(t *testing.T) {
	r := Region{West: 1, South: 2, East: 3, North: 4}

	assert.Equal(t, orb.Bound{Min: orb.Point{1, 2}, Max: orb.Point{3, 4}}, r.Bound())
	assert.Equal(t, "1,2,3,4", r.String())

	parsed, err := ParseRegion(r.String())
	require.NoError(t, err)
	assert.Equal(t, r, parsed)
}
