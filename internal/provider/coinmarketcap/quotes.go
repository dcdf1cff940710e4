package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

const quotesLatestPath = "/v2/cryptocurrency/quotes/latest"

// quotesLatestResponse is the subset of /v2/cryptocurrency/quotes/latest we
// read. Prices decode straight from the JSON numeral into decimals.
type quotesLatestResponse struct {
	Data map[string]struct {
		ID     int    `json:"id"`
		Symbol string `json:"symbol"`
		Quote  map[string]struct {
			Price decimal.NullDecimal `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// GetCoinQuotes fetches the latest prices of coins in every quote currency
// with a single batched request.
func (c *Client) GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	if len(coins) == 0 || len(quotes) == 0 {
		return nil, provider.Retrieval(Name, "no coins or quote currencies requested", nil)
	}

	coinIDs, err := c.assets.ResolveAll(ctx, coins)
	if err != nil {
		return nil, provider.Wrap(Name, "", err)
	}
	convertIDs, err := c.quotes.ResolveAll(ctx, quotes)
	if err != nil {
		return nil, provider.Wrap(Name, "", err)
	}

	params := url.Values{
		"id":         {strings.Join(coinIDs, ",")},
		"convert_id": {strings.Join(convertIDs, ",")},
	}
	raw, err := c.sendRequest(ctx, http.MethodGet, quotesLatestPath, params)
	if err != nil {
		return nil, err
	}

	q, err := c.normalize(ctx, raw, coins, quotes)
	if err != nil {
		return nil, &provider.QuoteRetrievalError{Provider: Name, Reason: "normalizing response", Err: err}
	}
	c.logger.Debug("coin quotes retrieved",
		zap.Strings("coins", symbol.Values(coins)),
		zap.Strings("quotes", symbol.Values(quotes)),
		zap.Int("prices", q.Len()),
	)
	return q, nil
}

// normalize maps CoinMarketCap ids in the payload back to registry symbols.
// A null price counts as missing.
func (c *Client) normalize(ctx context.Context, raw json.RawMessage, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	var resp quotesLatestResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, errors.New("response has no data")
	}

	b := quote.NewBuilder(Name, raw)
	for coinID, entry := range resp.Data {
		coin, err := c.assets.ReverseResolve(ctx, coinID)
		if err != nil {
			return nil, err
		}
		for convertID, data := range entry.Quote {
			q, err := c.quotes.ReverseResolve(ctx, convertID)
			if err != nil {
				return nil, err
			}
			if !data.Price.Valid {
				continue
			}
			if err := b.Set(coin, q, data.Price.Decimal); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(coins, quotes)
}
