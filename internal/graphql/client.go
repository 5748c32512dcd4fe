// Package graphql sends GraphQL operations to a single HTTP endpoint with
// bounded exponential-backoff retry.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/JonMunkholm/boardimport/internal/logging"
)

// maxErrorBody is how much of a non-200 body ends up in the error.
const maxErrorBody = 500

// RequestIDHeader carries the per-attempt request id.
const RequestIDHeader = "X-Request-Id"

// Request is the JSON body of one call.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// Error is one entry of a GraphQL errors list.
type Error struct {
	Message string `json:"message"`
}

// Response is a decoded GraphQL reply.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Options configures a Client.
type Options struct {
	URL     string
	APIKey  string
	Timeout time.Duration
	Retry   RetryPolicy

	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client

	// Sleep and Jitter replace the real backoff wait and random source.
	Sleep  SleepFunc
	Jitter JitterFunc
}

// Client sends operations to one endpoint with a fixed key and timeout.
// It is safe to share, though the importer only ever calls it sequentially.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	retry  RetryPolicy
	sleep  SleepFunc
	jitter JitterFunc
}

// New creates a Client from opts.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		url:    opts.URL,
		apiKey: opts.APIKey,
		http:   hc,
		retry:  opts.Retry,
		sleep:  opts.Sleep,
		jitter: opts.Jitter,
	}
	if c.sleep == nil {
		c.sleep = Sleep
	}
	if c.jitter == nil {
		c.jitter = randomJitter
	}
	return c
}

// Do sends query with variables, retrying failed attempts per the policy.
// After the last allowed attempt it returns *core.RequestFailed wrapping the
// final cause. A cancelled backoff also returns *core.RequestFailed, wrapping
// the context error.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any) (*Response, error) {
	body, err := json.Marshal(Request{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	tries := c.retry.Tries()
	for attempt := 0; ; attempt++ {
		actx := context.WithValue(ctx, middleware.RequestIDKey, uuid.NewString())
		resp, err := c.attempt(actx, body)
		if err == nil {
			return resp, nil
		}

		if attempt+1 >= tries {
			return nil, &core.RequestFailed{Attempts: attempt + 1, Cause: err}
		}

		wait := c.retry.Backoff(attempt) + c.jitter(c.retry.Jitter)
		logging.FromContext(actx).Warn("request failed, retrying",
			"attempt", attempt+1,
			"max_attempts", tries,
			"backoff", wait,
			"error", err,
		)

		if serr := c.sleep(ctx, wait); serr != nil {
			return nil, &core.RequestFailed{
				Attempts: attempt + 1,
				Cause:    fmt.Errorf("backoff interrupted: %w", serr),
			}
		}
	}
}

// attempt performs one transport call and classifies the outcome. The
// request id on ctx is sent so server logs can be matched to ours.
func (c *Client) attempt(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if id := middleware.GetReqID(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(raw) > maxErrorBody {
			raw = raw[:maxErrorBody]
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, raw)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %s", out.Errors[0].Message)
	}
	return &out, nil
}
