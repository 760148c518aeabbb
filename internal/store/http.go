package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SavePath is the endpoint path accepting category payloads
const SavePath = "/save-footprints"

// HTTPSink posts payloads to a footprint server. Each post is one-shot.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates a sink posting to baseURL + SavePath
func NewHTTPSink(baseURL string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSink{
		url:    strings.TrimSuffix(baseURL, "/") + SavePath,
		client: &http.Client{Timeout: timeout},
	}
}

// Save posts the payload as JSON
func (s *HTTPSink) Save(ctx context.Context, p Payload) error {
	if err := p.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s: %w", p.Category, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("saving %s: unexpected status code %d: %s",
			p.Category, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
