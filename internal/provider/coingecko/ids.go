package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"

	"anycoin/internal/symbol"
)

const (
	coinsMarketsPath = "/coins/markets"
	vsCurrenciesPath = "/simple/supported_vs_currencies"
)

// AssetID returns the CoinGecko coin id (e.g. "bitcoin") of a coin.
func (c *Client) AssetID(ctx context.Context, s symbol.Symbol) (string, error) {
	return c.assets.Resolve(ctx, s)
}

func (c *Client) AssetSymbol(ctx context.Context, id string) (symbol.Symbol, error) {
	return c.assets.ReverseResolve(ctx, id)
}

// QuoteID returns the vs_currency id of a quote currency.
func (c *Client) QuoteID(ctx context.Context, s symbol.Symbol) (string, error) {
	return c.quotes.Resolve(ctx, s)
}

func (c *Client) QuoteSymbol(ctx context.Context, id string) (symbol.Symbol, error) {
	return c.quotes.ReverseResolve(ctx, id)
}

func (c *Client) AssetIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	return c.assets.Entries(ctx)
}

func (c *Client) QuoteIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	return c.quotes.Entries(ctx)
}

type marketEntry struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	MarketCapRank *int   `json:"market_cap_rank"`
}

// loadCoinIDs asks /coins/markets for every crypto ticker in the registry.
// Many tokens share a ticker, so the one with the best market cap rank wins;
// an unranked entry only wins when nothing else is listed.
func (c *Client) loadCoinIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	var tickers []string
	for _, s := range symbol.All() {
		if s.Kind() == symbol.KindCrypto {
			tickers = append(tickers, s.Value())
		}
	}
	params := url.Values{
		"vs_currency":    {"usd"},
		"symbols":        {strings.Join(tickers, ",")},
		"include_tokens": {"top"},
	}
	raw, err := c.sendRequest(ctx, http.MethodGet, coinsMarketsPath, params)
	if err != nil {
		return nil, err
	}
	var entries []marketEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding coins markets: %w", err)
	}

	ids := make(map[symbol.Symbol]string, len(tickers))
	ranks := make(map[symbol.Symbol]int, len(tickers))
	for _, e := range entries {
		s, err := symbol.Parse(e.Symbol)
		if err != nil || s.Kind() != symbol.KindCrypto || e.ID == "" {
			continue
		}
		rank := math.MaxInt
		if e.MarketCapRank != nil && *e.MarketCapRank > 0 {
			rank = *e.MarketCapRank
		}
		if best, ok := ranks[s]; ok && best <= rank {
			continue
		}
		ranks[s] = rank
		ids[s] = e.ID
	}
	return ids, nil
}

// loadVsCurrencies maps every registry symbol CoinGecko accepts as a
// vs_currency. The id is the lower-case ticker itself.
func (c *Client) loadVsCurrencies(ctx context.Context) (map[symbol.Symbol]string, error) {
	raw, err := c.sendRequest(ctx, http.MethodGet, vsCurrenciesPath, nil)
	if err != nil {
		return nil, err
	}
	var currencies []string
	if err := json.Unmarshal(raw, &currencies); err != nil {
		return nil, fmt.Errorf("decoding supported vs currencies: %w", err)
	}

	ids := map[symbol.Symbol]string{}
	for _, cur := range currencies {
		s, err := symbol.Parse(cur)
		if err != nil {
			continue
		}
		ids[s] = s.Value()
	}
	return ids, nil
}
