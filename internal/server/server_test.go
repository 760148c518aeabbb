package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wegman-software/osm-footprints/internal/aggregate"
	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/metrics"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
	"github.com/wegman-software/osm-footprints/internal/proj"
	"github.com/wegman-software/osm-footprints/internal/store"
)

func init() {
	logger.Set(zap.NewNop())
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *store.DirStore) {
	t.Helper()
	st, err := store.NewDirStore(t.TempDir())
	require.NoError(t, err)
	return New(st, opts...), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

var square = orb.Polygon{{{13.40, 52.50}, {13.40, 52.51}, {13.41, 52.51}, {13.41, 52.50}, {13.40, 52.50}}}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decode(t, rr)["status"])
	assert.NotContains(t, decode(t, rr), "system")
}

func TestHealthWithCollector(t *testing.T) {
	c := metrics.NewCollector(time.Minute, zap.NewNop())
	c.Collect()
	s, _ := newTestServer(t, WithCollector(c))

	rr := do(t, s.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	system, ok := decode(t, rr)["system"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, system, "memoryPercent")
}

func TestSaveFootprints(t *testing.T) {
	s, st := newTestServer(t)

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square))

	rr := do(t, s.Handler(), http.MethodPost, "/save-footprints", store.Payload{Category: "parking", GeoJSON: fc})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Footprints for parking saved successfully", decode(t, rr)["message"])

	_, err := os.Stat(filepath.Join(st.Dir(), "parking.geojson"))
	assert.NoError(t, err)
}

func TestSaveFootprintsInvalid(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"missing category", map[string]any{"geojson": map[string]any{"type": "FeatureCollection", "features": []any{}}}},
		{"missing geojson", map[string]any{"category": "parking"}},
		{"path traversal", map[string]any{"category": "../etc", "geojson": map[string]any{"type": "FeatureCollection", "features": []any{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/save-footprints", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "Invalid data", decode(t, rr)["error"])
		})
	}
}

func TestAnalyzeFootprintsMissing(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s.Handler(), http.MethodGet, "/analyze-footprints", nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "greenspace.geojson not found", decode(t, rr)["error"])
}

func TestAnalyzeFootprints(t *testing.T) {
	s, st := newTestServer(t)

	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(square))
	fc.Append(geojson.NewFeature(orb.MultiPolygon{square, square}))
	fc.Append(geojson.NewFeature(orb.Point{13.4, 52.5}))                                   // no area
	fc.Append(geojson.NewFeature(orb.Polygon{{{13.4, 52.5}, {13.4, 52.5}, {13.4, 52.5}}})) // degenerate
	require.NoError(t, st.Save(context.Background(), store.Payload{Category: "greenspace", GeoJSON: fc}))

	rr := do(t, s.Handler(), http.MethodGet, "/analyze-footprints", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var sum GreenSummary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.GreenFeatures)

	want := 3 * proj.MercatorArea(square)
	assert.InDelta(t, want, sum.TotalGreenAreaM2, 0.01)
	assert.Greater(t, sum.TotalGreenAreaM2, 0.0)
}

type fakeRunner struct {
	res *pipeline.Result
	err error
	got geomath.Region
}

func (f *fakeRunner) Run(_ context.Context, r geomath.Region) (*pipeline.Result, error) {
	f.got = r
	return f.res, f.err
}

func TestAnalyzeRegion(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{
		Batch: &pipeline.Batch{
			Snapshot: aggregate.Snapshot{Greenspace: 1, TotalGreenSpaceArea: 20, TotalFootprintArea: 100},
			Index:    aggregate.Index{Value: 20, Label: aggregate.LabelGood},
		},
		Errors: []error{errors.New("persistence: category parking: disk full")},
	}}
	s, _ := newTestServer(t, WithRunner(runner))

	region := geomath.Region{West: 13.3, South: 52.5, East: 13.4, North: 52.6}
	rr := do(t, s.Handler(), http.MethodPost, "/api/analyze", AnalyzeRequest{Region: region})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, region, runner.got)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Metrics.Greenspace)
	require.NotNil(t, resp.Accessibility)
	assert.Equal(t, aggregate.LabelGood, resp.Accessibility.Label)
	assert.Len(t, resp.Errors, 1)
}

func TestAnalyzeRegionDegenerate(t *testing.T) {
	runner := &fakeRunner{res: &pipeline.Result{
		Batch: &pipeline.Batch{IndexErr: aggregate.ErrDegenerateFootprint},
	}}
	s, _ := newTestServer(t, WithRunner(runner))

	rr := do(t, s.Handler(), http.MethodPost, "/api/analyze",
		AnalyzeRequest{Region: geomath.Region{West: 0, South: 0, East: 1, North: 1}})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, decode(t, rr), "accessibility")
}

func TestAnalyzeRegionErrors(t *testing.T) {
	runner := &fakeRunner{err: errors.New("overpass: unexpected status: 504")}
	s, _ := newTestServer(t, WithRunner(runner))
	h := s.Handler()

	rr := do(t, h, http.MethodPost, "/api/analyze", "not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/analyze",
		AnalyzeRequest{Region: geomath.Region{West: 1, South: 0, East: 0, North: 1}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/api/analyze",
		AnalyzeRequest{Region: geomath.Region{West: 0, South: 0, East: 1, North: 1}})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestAnalyzeRegionDisabledWithoutRunner(t *testing.T) {
	s, _ := newTestServer(t)
	rr := do(t, s.Handler(), http.MethodPost, "/api/analyze", "{}")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, WithCORSOrigins([]string{"http://map.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/save-footprints", nil)
	req.Header.Set("Origin", "http://map.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	assert.Equal(t, "http://map.example", rr.Header().Get("Access-Control-Allow-Origin"))
}
