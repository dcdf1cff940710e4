package coingecko

import (
	"context"
	"encoding/json"
	"net/url"
)

// SendRequest exposes sendRequest to the external test package.
func (c *Client) SendRequest(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	return c.sendRequest(ctx, method, path, params)
}
