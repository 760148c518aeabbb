package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osm-footprints/internal/classify"
	"github.com/wegman-software/osm-footprints/internal/feature"
)

// ErrInvalidPayload is returned for payloads without category or geojson
var ErrInvalidPayload = errors.New("invalid payload")

// Payload is the persisted unit: one category's features as a FeatureCollection
type Payload struct {
	Category string                     `json:"category"`
	GeoJSON  *geojson.FeatureCollection `json:"geojson"`
}

// Validate checks that the payload names a safe category and carries a collection
func (p Payload) Validate() error {
	if p.Category == "" || p.GeoJSON == nil {
		return ErrInvalidPayload
	}
	if strings.ContainsAny(p.Category, `/\`) || strings.HasPrefix(p.Category, ".") {
		return fmt.Errorf("%w: category %q", ErrInvalidPayload, p.Category)
	}
	return nil
}

// Sink accepts category payloads for storage
type Sink interface {
	Save(ctx context.Context, p Payload) error
}

// Payloads builds one payload per non-empty category, in rule order
func Payloads(groups map[classify.Category][]feature.Feature) []Payload {
	var out []Payload
	for _, c := range classify.Categories {
		fc := feature.Collection(groups[c])
		if len(fc.Features) == 0 {
			continue
		}
		out = append(out, Payload{Category: string(c), GeoJSON: fc})
	}
	return out
}
