// Package ratelimit gates outgoing provider requests so a client stays
// inside its plan's call budget.
package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"anycoin/internal/httpx"
)

// Client wraps an httpx.HTTPClient with a token bucket. Requests wait for a
// token until their context is done.
type Client struct {
	next    httpx.HTTPClient
	limiter *rate.Limiter
}

var _ httpx.HTTPClient = (*Client)(nil)

// PerMinute allows perMinute requests a minute with the given burst. A
// non-positive perMinute returns next unchanged.
func PerMinute(next httpx.HTTPClient, perMinute, burst int) httpx.HTTPClient {
	if perMinute <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst),
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return c.next.Do(req)
}
