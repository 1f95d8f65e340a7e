// Package sdk is a thin HTTP client for a remote relfeed server.
package sdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to a relfeed HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpc = hc }
}

// New creates a client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Feedback executes a feedback search.
func (c *Client) Feedback(ctx context.Context, req FeedbackRequest) (*FeedbackResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("sdk: query is required")
	}

	u := c.baseURL + "/api/v1/feedback?" + req.values().Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("sdk: build request: %w", err)
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sdk: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sdk: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var out FeedbackResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("sdk: decode response: %w", err)
	}
	return &out, nil
}

func (r FeedbackRequest) values() url.Values {
	v := url.Values{}
	v.Set("q", r.Query)
	if r.Parser != "" {
		v.Set("defType", r.Parser)
	}
	for _, fq := range r.Filters {
		v.Add("fq", fq)
	}
	if r.Sort != "" {
		v.Set("sort", r.Sort)
	}
	if r.Start > 0 {
		v.Set("start", strconv.Itoa(r.Start))
	}
	if r.Rows > 0 {
		v.Set("rows", strconv.Itoa(r.Rows))
	}
	if r.MaxDocumentsToProcess != nil {
		v.Set("maxDocumentsToProcess", strconv.Itoa(*r.MaxDocumentsToProcess))
	}
	if r.MatchInclude != nil {
		v.Set("matchInclude", strconv.FormatBool(*r.MatchInclude))
	}
	if r.MatchOffset > 0 {
		v.Set("matchOffset", strconv.Itoa(r.MatchOffset))
	}
	if r.InterestingTerms != "" {
		v.Set("interestingTerms", r.InterestingTerms)
	}
	if r.Facet {
		v.Set("facet", "true")
		for _, f := range r.FacetFields {
			v.Add("facet.field", f)
		}
	}
	if r.Debug != "" {
		v.Set("debug", r.Debug)
	}
	if r.IncludeScore {
		v.Set("fl", "score")
	}
	return v
}

func parseAPIError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
