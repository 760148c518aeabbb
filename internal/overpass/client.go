package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wegman-software/osm-footprints/internal/feature"
	"github.com/wegman-software/osm-footprints/internal/geomath"
	"github.com/wegman-software/osm-footprints/internal/logger"
	"github.com/wegman-software/osm-footprints/internal/style"
)

// DefaultEndpoint is the public Overpass API interpreter
const DefaultEndpoint = "https://overpass-api.de/api/interpreter"

// ErrStatus is returned when the interpreter answers with a non-200 status
var ErrStatus = errors.New("overpass: unexpected status")

// Client fetches raw elements for a region from an Overpass API interpreter.
// Requests are one-shot: a failure is reported as-is and never retried.
type Client struct {
	endpoint  string
	client    *http.Client
	style     *style.Config
	filter    *style.Filter
	timeout   time.Duration
	userAgent string
	limiter   *rate.Limiter // nil = unlimited
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithStyle sets the element selection used to build queries
func WithStyle(cfg *style.Config) Option {
	return func(cl *Client) {
		cl.style = cfg
		cl.filter = style.NewFilter(cfg)
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithLimiter spaces requests out. Fetch waits for the limiter before sending.
func WithLimiter(l *rate.Limiter) Option {
	return func(cl *Client) { cl.limiter = l }
}

// NewClient creates a client for the given interpreter endpoint.
// timeout bounds both the HTTP request and the server-side query.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	def := style.DefaultConfig()
	c := &Client{
		endpoint:  endpoint,
		client:    &http.Client{Timeout: timeout},
		style:     def,
		filter:    style.NewFilter(def),
		timeout:   timeout,
		userAgent: "osm-footprints/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch runs the region query and returns every element of the response.
// Any failure covers the whole fetch; no partial results are returned.
func (c *Client) Fetch(ctx context.Context, region geomath.Region) ([]feature.RawElement, error) {
	log := logger.Get()
	query := BuildQuery(region, c.style.Selectors(), c.timeout)

	log.Debug("Fetching region data",
		zap.String("endpoint", c.endpoint),
		zap.Stringer("region", region),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("overpass rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(url.Values{"data": {query}}.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d %s", ErrStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	elements, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	if c.filter.HasFilter() {
		kept := elements[:0]
		for _, e := range elements {
			if c.filter.Match(e.Type, e.Tags) {
				kept = append(kept, e)
			}
		}
		elements = kept
	}

	log.Debug("Fetched region data", zap.Int("elements", len(elements)))
	return elements, nil
}

// response mirrors the JSON output of an "out geom" query
type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Geometry []latLon          `json:"geometry"`
	Tags     map[string]string `json:"tags"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Decode parses an Overpass JSON response into raw elements
func Decode(r io.Reader) ([]feature.RawElement, error) {
	var resp response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode overpass response: %w", err)
	}

	// runtime errors come back as 200 with a remark and no elements
	if resp.Remark != "" && len(resp.Elements) == 0 && strings.Contains(resp.Remark, "error") {
		return nil, fmt.Errorf("overpass query failed: %s", resp.Remark)
	}

	out := make([]feature.RawElement, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		raw := feature.RawElement{
			Type: osm.Type(e.Type),
			ID:   e.ID,
			Tags: tags(e.Tags),
		}
		if len(e.Geometry) > 0 {
			raw.Geometry = make([]orb.Point, len(e.Geometry))
			for i, g := range e.Geometry {
				raw.Geometry[i] = orb.Point{g.Lon, g.Lat}
			}
		}
		out = append(out, raw)
	}
	return out, nil
}

func tags(m map[string]string) osm.Tags {
	if len(m) == 0 {
		return nil
	}
	t := make(osm.Tags, 0, len(m))
	for k, v := range m {
		t = append(t, osm.Tag{Key: k, Value: v})
	}
	t.SortByKeyValue()
	return t
}
