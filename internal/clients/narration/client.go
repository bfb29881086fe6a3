// Package narration is the C4 Narration Planner's HTTP client for the
// external narration engine (§6: POST /describe). Same retry skeleton as
// the routing client, grounded on the teacher's openai client.
package narration

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

type SpotRequest struct {
	SpotID      string `json:"spot_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MDSlug      string `json:"md_slug,omitempty"`
	Variant     string `json:"variant,omitempty"`
}

type Request struct {
	Language string        `json:"language"`
	Spots    []SpotRequest `json:"spots"`
}

type Item struct {
	SpotID  string `json:"spot_id"`
	Variant string `json:"variant,omitempty"`
	Text    string `json:"text"`
}

type Response struct {
	Items []Item `json:"items"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string       { return fmt.Sprintf("narration http %d: %s", e.StatusCode, e.Body) }
func (e *httpError) HTTPStatusCode() int { return e.StatusCode }

type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		log:        log.With("service", "NarrationClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// Describe dispatches one batch request containing every (spot, variant)
// pair the job needs narrated, per §4.4. A fewer-than-requested response is
// not an error here: the caller fills missing (spot_id, variant) pairs with
// empty text rather than failing the job.
func (c *Client) Describe(ctx context.Context, req Request) (*Response, error) {
	var out Response
	if err := c.do(ctx, http.MethodPost, "/describe", req, &out); err != nil {
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
				return fmt.Errorf("narration decode error: %w; raw=%s", uErr, string(raw))
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
		c.log.Warn("narration request retrying", "path", path, "attempt", attempt+1, "max_retries", c.maxRetries, "sleep", sleepFor.String(), "error", err.Error())
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}
