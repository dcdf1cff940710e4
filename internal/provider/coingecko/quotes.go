package coingecko

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

const simplePricePath = "/simple/price"

// simplePriceResponse is keyed by coin id, then vs_currency.
type simplePriceResponse map[string]map[string]decimal.NullDecimal

// GetCoinQuotes fetches the latest prices of coins in every quote currency
// with a single /simple/price call.
func (c *Client) GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	if len(coins) == 0 || len(quotes) == 0 {
		return nil, provider.Retrieval(Name, "no coins or quote currencies requested", nil)
	}

	coinIDs, err := c.assets.ResolveAll(ctx, coins)
	if err != nil {
		return nil, provider.Wrap(Name, "", err)
	}
	vsIDs, err := c.quotes.ResolveAll(ctx, quotes)
	if err != nil {
		return nil, provider.Wrap(Name, "", err)
	}

	params := url.Values{
		"ids":           {strings.Join(coinIDs, ",")},
		"vs_currencies": {strings.Join(vsIDs, ",")},
		"precision":     {"full"},
	}
	raw, err := c.sendRequest(ctx, http.MethodGet, simplePricePath, params)
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

func (c *Client) normalize(ctx context.Context, raw json.RawMessage, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	var resp simplePriceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	b := quote.NewBuilder(Name, raw)
	for coinID, prices := range resp {
		coin, err := c.assets.ReverseResolve(ctx, coinID)
		if err != nil {
			return nil, err
		}
		for vsID, price := range prices {
			q, err := c.quotes.ReverseResolve(ctx, vsID)
			if err != nil {
				return nil, err
			}
			if !price.Valid {
				continue
			}
			if err := b.Set(coin, q, price.Decimal); err != nil {
				return nil, err
			}
		}
	}
	return b.Build(coins, quotes)
}
