package coingecko

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
const Name = "coingecko"

const (
	demoBaseURL = "https://api.coingecko.com/api/v3"
	proBaseURL  = "https://pro-api.coingecko.com/api/v3"

	demoKeyHeader = "x-cg-demo-api-key"
	proKeyHeader  = "x-cg-pro-api-key"
)

// Client is a CoinGecko API client implementing provider.Provider.
// It talks to the public demo API unless WithPro is set.
type Client struct {
	apiKey     string
	pro        bool
	baseURL    string
	httpClient httpx.HTTPClient
	header     http.Header
	logger     *zap.Logger
	idMapTTL   time.Duration

	assets *idmap.Table
	quotes *idmap.Table
}

type Option func(*Client)

// WithBaseURL overrides the API root, including the /api/v3 prefix.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithHTTPClient(httpClient httpx.HTTPClient) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader adds headers sent with each request.
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

// WithIDMapTTL sets how long the id listings are cached.
func WithIDMapTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.idMapTTL = ttl
	}
}

// WithPro switches to the paid API host and key header.
func WithPro(pro bool) Option {
	return func(c *Client) {
		c.pro = pro
	}
}

func New(apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("coingecko: api key is required")
	}
	c := &Client{
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		header:     http.Header{},
		logger:     zap.NewNop(),
	}
	for _, option := range options {
		option(c)
	}
	if c.baseURL == "" {
		c.baseURL = demoBaseURL
		if c.pro {
			c.baseURL = proBaseURL
		}
	}
	c.logger = c.logger.With(zap.String("provider", Name))
	c.assets = idmap.New(Name, provider.RoleAsset, c.loadCoinIDs, idmap.WithTTL(c.idMapTTL), idmap.WithLogger(c.logger))
	c.quotes = idmap.New(Name, provider.RoleQuote, c.loadVsCurrencies, idmap.WithTTL(c.idMapTTL), idmap.WithLogger(c.logger))
	return c, nil
}

func (c *Client) Name() string { return Name }

func (c *Client) String() string {
	if c.pro {
		return "coingecko.Client(pro, api_key=***)"
	}
	return "coingecko.Client(api_key=***)"
}

func (c *Client) keyHeader() string {
	if c.pro {
		return proKeyHeader
	}
	return demoKeyHeader
}

// errorEnvelope covers both error shapes CoinGecko uses: a status object on
// rate limits and auth failures, and a bare top-level error string.
type errorEnvelope struct {
	Status *struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Error string `json:"error"`
}

func (e errorEnvelope) code() int {
	if e.Status == nil {
		return 0
	}
	return e.Status.ErrorCode
}

// sendRequest performs an API call and returns the raw body. A non-200
// answer, a non-zero status.error_code or a top-level error field is a
// QuoteRetrievalError carrying the body.
func (c *Client) sendRequest(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	u := httpx.JoinPath(c.baseURL, path, params)
	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, provider.Retrieval(Name, "creating request", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(c.keyHeader(), c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, provider.Retrieval(Name, "performing request", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, provider.Retrieval(Name, "reading response", err)
	}

	// Success bodies are arrays or objects; only objects can carry errors.
	var envelope errorEnvelope
	if len(body) > 0 && body[0] == '{' {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, provider.Retrieval(Name, "decoding response", err)
		}
	} else if !json.Valid(body) {
		return nil, provider.Retrieval(Name, "decoding response", errors.New("invalid json"))
	}

	if res.StatusCode == http.StatusOK && envelope.code() == 0 && envelope.Error == "" {
		return body, nil
	}

	c.logger.Debug("request rejected",
		zap.String("path", req.URL.Path),
		zap.Int("http_status", res.StatusCode),
		zap.Int("error_code", envelope.code()),
		zap.String("error", envelope.Error),
	)
	return nil, &provider.QuoteRetrievalError{
		Provider: Name,
		Reason:   fmt.Sprintf("http status %d, error code %d", res.StatusCode, envelope.code()),
		Payload:  body,
	}
}
