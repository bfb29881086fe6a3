// Package synth is the C5 Audio Fan-Out's HTTP client for the external
// speech-synthesis engine (§6: POST /synthesize_and_save). The engine
// itself writes audio bytes into the shared pack directory given a
// pack_id; the core only dispatches the batch and collects the
// identity-keyed results.
package synth

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

type ItemRequest struct {
	SpotID  string `json:"spot_id"`
	Variant string `json:"variant,omitempty"`
	Text    string `json:"text"`
}

type Request struct {
	PackID          string        `json:"pack_id"`
	Language        string        `json:"language"`
	Items           []ItemRequest `json:"items"`
	PreferredFormat string        `json:"preferred_format"`
	BitrateKbps     int           `json:"bitrate_kbps"`
	SaveText        bool          `json:"save_text"`
}

type ItemResponse struct {
	SpotID      string  `json:"spot_id"`
	Variant     string  `json:"variant,omitempty"`
	AudioURL    string  `json:"audio_url"`
	SizeBytes   int64   `json:"size_bytes"`
	DurationSec float64 `json:"duration_sec"`
	Format      string  `json:"format"`
	TextURL     string  `json:"text_url,omitempty"`
	Failed      bool    `json:"failed,omitempty"`
}

type Response struct {
	Items []ItemResponse `json:"items"`
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string       { return fmt.Sprintf("synth http %d: %s", e.StatusCode, e.Body) }
func (e *httpError) HTTPStatusCode() int { return e.StatusCode }

type Client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger, baseURL string, timeout time.Duration, maxRetries int) *Client {
	return &Client{
		log:        log.With("service", "SynthClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// SynthesizeAndSave dispatches one batch to the speech engine. Per §5 the
// whole batch is retried as one unit on a retryable transport failure
// (open question (ii) resolved: whole-batch retry, not per-item resubmit).
func (c *Client) SynthesizeAndSave(ctx context.Context, req Request) (*Response, error) {
	var out Response
	if err := c.do(ctx, http.MethodPost, "/synthesize_and_save", req, &out); err != nil {
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
				return fmt.Errorf("synth decode error: %w; raw=%s", uErr, string(raw))
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
		c.log.Warn("synth request retrying", "path", path, "attempt", attempt+1, "max_retries", c.maxRetries, "sleep", sleepFor.String(), "error", err.Error())
		time.Sleep(sleepFor)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}
