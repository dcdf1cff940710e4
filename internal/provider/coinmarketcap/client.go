package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"anycoin/internal/httpx"
	"anycoin/internal/provider"
	"anycoin/internal/provider/idmap"
)

// Name identifies this provider in errors, logs and cache keys.
const Name = "coinmarketcap"

const (
	baseURL = "https://pro-api.coinmarketcap.com"

	// noErrorCode is the status.error_code of a successful response.
	noErrorCode = 0
)

// Client is a CoinMarketCap Pro API client implementing provider.Provider.
type Client struct {
	// apiKey is sent as X-CMC_PRO_API_KEY on every request.
	apiKey string
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient is the HTTP client.
	httpClient httpx.HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
	logger *zap.Logger
	// idMapTTL bounds how long identifier mappings are reused.
	idMapTTL time.Duration

	assets *idmap.Table
	quotes *idmap.Table
}

// Option is a configuration option for the CoinMarketCap client.
type Option func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithIDMapTTL sets how long the id listings are cached. Zero caches them
// for the life of the client.
func WithIDMapTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.idMapTTL = ttl
	}
}

// New creates a new CoinMarketCap client.
func New(apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("coinmarketcap: api key is required")
	}
	var c = &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}
	c.logger = c.logger.With(zap.String("provider", Name))
	c.assets = idmap.New(Name, provider.RoleAsset, c.loadCryptoIDs, idmap.WithTTL(c.idMapTTL), idmap.WithLogger(c.logger))
	c.quotes = idmap.New(Name, provider.RoleQuote, c.loadConvertIDs, idmap.WithTTL(c.idMapTTL), idmap.WithLogger(c.logger))
	return c, nil
}

func (c *Client) Name() string { return Name }

// String keeps the API key out of logs.
func (c *Client) String() string { return "coinmarketcap.Client(api_key=***)" }

type status struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// sendRequest performs an API call and returns the raw body. Success means
// HTTP 200 and status.error_code == 0; anything else is a QuoteRetrievalError.
func (c *Client) sendRequest(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	u := httpx.JoinPath(c.baseURL, path, params)
	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, provider.Retrieval(Name, "creating request", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Retrieval(Name, "performing request", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, provider.Retrieval(Name, "reading response", err)
	}

	var envelope struct {
		Status *status `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, provider.Retrieval(Name, "decoding response", err)
	}
	if envelope.Status == nil {
		return nil, &provider.QuoteRetrievalError{Provider: Name, Reason: "response has no status", Payload: body}
	}

	if res.StatusCode == http.StatusOK && envelope.Status.ErrorCode == noErrorCode {
		return body, nil
	}

	c.logger.Debug("request rejected",
		zap.String("path", req.URL.Path),
		zap.Int("http_status", res.StatusCode),
		zap.Int("error_code", envelope.Status.ErrorCode),
		zap.String("error_message", envelope.Status.ErrorMessage),
	)
	return nil, &provider.QuoteRetrievalError{
		Provider: Name,
		Reason:   fmt.Sprintf("http status %d, error code %d", res.StatusCode, envelope.Status.ErrorCode),
		Payload:  body,
	}
}
