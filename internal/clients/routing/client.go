// Package routing is the C2 Route Builder's HTTP client for the external
// routing engine (§6: POST /route). Shaped after the teacher's
// internal/clients/openai/client.go do/doOnce retry skeleton since both are
// "internal HTTP collaborator with retryable transport errors" clients.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/httpx"
	"github.com/takahashiJe/navpack-orchestrator/internal/pkg/logger"
)

type Waypoint struct {
	SpotID *string  `json:"spot_id,omitempty"`
	Lat    *float64 `json:"lat,omitempty"`
	Lon    *float64 `json:"lon,omitempty"`
}

type Request struct {
	Origin         struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"origin"`
	Waypoints      []Waypoint `json:"waypoints"`
	CarToTrailhead bool       `json:"car_to_trailhead"`
}

// LegShape is the engine's native leg shape, which may carry either
// explicit from/to coordinates or integer polyline indices (§9 Dynamic
// shape of legs) — the Pack Assembler normalizes both forms.
type LegShape struct {
	Mode      string       `json:"mode"`
	FromIdx   *int         `json:"from_idx,omitempty"`
	ToIdx     *int         `json:"to_idx,omitempty"`
	From      *[2]float64  `json:"from,omitempty"`
	To        *[2]float64  `json:"to,omitempty"`
	Distance  float64      `json:"distance"`
	Duration  float64      `json:"duration"`
	Geometry  [][2]float64 `json:"geometry"`
}

type Response struct {
	FeatureCollection json.RawMessage `json:"feature_collection"`
	Legs              []LegShape      `json:"legs"`
	Polyline          [][2]float64    `json:"polyline"`
	Segments          []struct {
		Mode     string `json:"mode"`
		StartIdx int    `json:"start_idx"`
		EndIdx   int    `json:"end_idx"`
	} `json:"segments"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string       { return fmt.Sprintf("routing http %d: %s", e.StatusCode, e.Body) }
func (e *httpError) HTTPStatusCode() int { return e.StatusCode }

type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		log:        log.With("service", "RoutingClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// Route requests a single car or foot route. A non-2xx response is
// returned as a typed *httpError so httpx.IsRetryableError can classify it.
func (c *Client) Route(ctx context.Context, req Request) (*Response, error) {
	var out Response
	if err := c.do(ctx, http.MethodPost, "/route", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("routing decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}
		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}
		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)
		c.log.Warn("routing request retrying", "path", path, "attempt", attempt+1, "max_retries", c.maxRetries, "sleep", sleepFor.String(), "error", err.Error())
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}
