// Package search queries the MediaWiki search API for a total hit count.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://en.wikipedia.org/w/api.php"
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "wikihat/1.0 (https://github.com/coreman2200/wikihat)"

	maxBodyBytes = 1 << 20
)

// Result of one query.
type Result struct {
	Term      string
	TotalHits int64
}

// NetworkError wraps transport, status and decode failures. Its message is
// meant to be shown to the user as is.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is an error object returned by MediaWiki in a 200 response.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Info, e.Code)
}

type response struct {
	Query *struct {
		SearchInfo struct {
			TotalHits int64 `json:"totalhits"`
		} `json:"searchinfo"`
	} `json:"query"`
	Error *APIError `json:"error"`
}

type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
}

// NewClient returns a Client for baseURL ("" for Wikipedia) with a
// per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:   baseURL,
		UserAgent: DefaultUserAgent,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// HitCount runs action=query&list=search for term and returns totalhits.
func (c *Client) HitCount(ctx context.Context, term string) (Result, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("list", "search")
	params.Set("srsearch", term)
	// only the count is read
	params.Set("srlimit", "1")
	params.Set("srprop", "")

	sep := "?"
	if strings.Contains(c.BaseURL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+sep+params.Encode(), nil)
	if err != nil {
		return Result{}, &NetworkError{Op: "create request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, &NetworkError{Op: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, &NetworkError{Op: "read response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, &NetworkError{Op: "search", Err: fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return Result{}, &NetworkError{Op: "decode response", Err: err}
	}
	if r.Error != nil {
		return Result{}, &NetworkError{Op: "search", Err: r.Error}
	}
	if r.Query == nil {
		return Result{}, &NetworkError{Op: "decode response", Err: fmt.Errorf("missing query.searchinfo")}
	}
	if r.Query.SearchInfo.TotalHits < 0 {
		return Result{}, &NetworkError{Op: "decode response", Err: fmt.Errorf("negative totalhits %d", r.Query.SearchInfo.TotalHits)}
	}
	return Result{Term: term, TotalHits: r.Query.SearchInfo.TotalHits}, nil
}
