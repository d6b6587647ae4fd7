package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxErrorBody = 4096

// UpstreamError carries the trade API's failure status so handlers can
// reproduce it toward the caller.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("trade api: %d", e.Status)
}

// IsBlocked reports whether err is the trade API refusing service outright
// (403). This class is treated as temporary policy enforcement rather than
// "resource gone", so cached data is preferred over surfacing it.
func IsBlocked(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.Status == http.StatusForbidden
}

// PoeClient issues requests against one trade API tree (poe1 or poe2) with a
// fixed User-Agent. It performs no caching, gating or retries itself.
type PoeClient struct {
	baseURL   string
	userAgent string
	hc        *http.Client
}

func NewPoeClient(baseURL, userAgent string, timeout time.Duration) *PoeClient {
	return &PoeClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		hc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *PoeClient) BaseURL() string {
	return c.baseURL
}

// Get fetches path and returns the raw body. Non-2xx statuses come back as
// *UpstreamError.
func (c *PoeClient) Get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// Post sends a JSON body to path and returns the raw response body.
func (c *PoeClient) Post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *PoeClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &UpstreamError{Status: res.StatusCode, Body: string(body)}
	}
	return io.ReadAll(res.Body)
}
