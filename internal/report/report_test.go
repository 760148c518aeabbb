package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/feature"
)

var sample = aggregate.Snapshot{
	Greenspace:                 2,
	Buildings:                  6,
	Parking:                    2,
	TotalGreenSpaceArea:        1500.456,
	TotalFootprintArea:         9000,
	TotalOutlierAreaPurged:     2000000,
	PropertiesOutsideAreaCount: 3,
}

func TestTextMetrics(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).ShowMetrics(sample))

	out := buf.String()
	assert.Contains(t, out, "Metrics Overview")
	assert.Contains(t, out, "1500.46 m²")
	assert.Contains(t, out, "9000.00 m²")
	assert.Contains(t, out, "2000000.00 m² purged")
	assert.Contains(t, out, "3 purged")
	assert.Contains(t, out, "Buildings     60.0%")
	assert.NotContains(t, out, "Pedestrian  ")
}

func TestTextAccessibility(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).ShowAccessibility(aggregate.Index{
		Value:               16.67,
		Label:               aggregate.LabelGood,
		TotalGreenSpaceArea: 1667,
		TotalFootprintArea:  10000,
	}))

	out := buf.String()
	assert.Contains(t, out, "17% (Good)")
	assert.Contains(t, out, "The UN recommends a 15-20% metric")
	assert.Contains(t, out, "Total Green Space Area: 1667.00 m²")
	assert.Contains(t, out, "Total Footprint Area: 10000.00 m²")
	assert.Contains(t, out, "Green Space in Properties: 16.67%")
}

func TestTextDegenerate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewText(&buf).ShowDegenerate(aggregate.ErrDegenerateFootprint))
	assert.Contains(t, buf.String(), "unavailable")
}

func TestBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("-", 10), Bar(0, 10))
	assert.Equal(t, "#####-----", Bar(50, 10))
	assert.Equal(t, strings.Repeat("#", 10), Bar(100, 10))
	assert.Equal(t, strings.Repeat("#", 10), Bar(250, 10), "capped at 100")
	assert.Equal(t, strings.Repeat("-", 10), Bar(-5, 10))
}

func TestDistribution(t *testing.T) {
	shares := Distribution(sample)
	require.Len(t, shares, 3)

	assert.Equal(t, "Greenspace", shares[0].Label)
	assert.InDelta(t, 20.0, shares[0].Percent, 1e-9)
	assert.Equal(t, "Parking", shares[1].Label)
	assert.Equal(t, "Buildings", shares[2].Label)
	assert.InDelta(t, 60.0, shares[2].Percent, 1e-9)

	assert.Nil(t, Distribution(aggregate.Snapshot{}))
}

func TestJSONFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	j := NewJSONFiles(dir)

	require.NoError(t, j.ShowMetrics(sample))
	data, err := os.ReadFile(filepath.Join(dir, MetricsFileName))
	require.NoError(t, err)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 2.0, got["greenspace"])
	assert.Equal(t, 3.0, got["propertiesOutsideAreaCount"])
	assert.Equal(t, 1500.456, got["totalGreenSpaceArea"])

	require.NoError(t, j.ShowAccessibility(aggregate.Index{Value: 25, Label: aggregate.LabelVeryGood}))
	data, err = os.ReadFile(filepath.Join(dir, AccessibilityFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Very Good"`)

	require.NoError(t, j.ShowDegenerate(aggregate.ErrDegenerateFootprint))
	data, err = os.ReadFile(filepath.Join(dir, AccessibilityFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "total footprint area is zero")
}

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := NewLog(zap.New(core))

	require.NoError(t, l.ShowMetrics(sample))
	require.NoError(t, l.ShowAccessibility(aggregate.Index{Value: 5, Label: aggregate.LabelLacking}))
	require.NoError(t, l.ShowDegenerate(aggregate.ErrDegenerateFootprint))

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, int64(6), entries[0].ContextMap()["buildings"])
	assert.Equal(t, aggregate.LabelLacking, entries[1].ContextMap()["label"])
	assert.Equal(t, zap.WarnLevel, entries[2].Level)
}

type failingSink struct{ err error }

func (f failingSink) ShowMetrics(aggregate.Snapshot) error    { return f.err }
func (f failingSink) ShowAccessibility(aggregate.Index) error { return f.err }
func (f failingSink) ShowDegenerate(error) error              { return f.err }

func TestMultiMetricsJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	var buf bytes.Buffer
	m := MultiMetrics{failingSink{err: boom}, NewText(&buf)}

	err := m.ShowMetrics(sample)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "Metrics Overview", "later sinks still run")

	assert.NoError(t, MultiMetrics{NewText(&buf)}.ShowAccessibility(aggregate.Index{}))
}

func TestEnrichAndWrite(t *testing.T) {
	ring := orb.Ring{{0, 0}, {0, 0.001}, {0.001, 0.001}, {0.001, 0}}
	features := []feature.Feature{
		{ID: "way/1", Ring: ring, Properties: feature.Properties{"leisure": "park"}, Contained: true},
		{ID: "way/2", Ring: ring, Properties: feature.Properties{"building": "yes", "building:levels": "4"}, Contained: true},
	}
	fc := Enrich(features, map[string]float64{"id:way/2": 42.5})
	require.Len(t, fc.Features, 2)

	park := fc.Features[0].Properties
	assert.Equal(t, "greenspace", park["category"])
	assert.Equal(t, true, park["greenspace"])
	assert.NotContains(t, park, "nearestGreenspaceM")

	building := fc.Features[1].Properties
	assert.Equal(t, "buildings", building["category"])
	assert.Equal(t, false, building["greenspace"])
	assert.Equal(t, 12.0, building["heightM"])
	assert.Equal(t, 42.5, building["nearestGreenspaceM"])
	assert.Equal(t, true, building["isContained"])

	path := filepath.Join(t.TempDir(), FeaturesFileName)
	require.NoError(t, NewGeoJSONFile(path).ShowFeatures(fc))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
}
