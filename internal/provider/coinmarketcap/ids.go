package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"anycoin/internal/symbol"
)

const (
	cryptoMapPath = "/v1/cryptocurrency/map"
	fiatMapPath   = "/v1/fiat/map"
)

// AssetID returns the CoinMarketCap id of a coin to be priced.
func (c *Client) AssetID(ctx context.Context, s symbol.Symbol) (string, error) {
	return c.assets.Resolve(ctx, s)
}

// AssetSymbol returns the coin registered under a CoinMarketCap id.
func (c *Client) AssetSymbol(ctx context.Context, id string) (symbol.Symbol, error) {
	return c.assets.ReverseResolve(ctx, id)
}

// QuoteID returns the CoinMarketCap convert id of a quote currency.
func (c *Client) QuoteID(ctx context.Context, s symbol.Symbol) (string, error) {
	return c.quotes.Resolve(ctx, s)
}

// QuoteSymbol returns the quote currency registered under a convert id.
func (c *Client) QuoteSymbol(ctx context.Context, id string) (symbol.Symbol, error) {
	return c.quotes.ReverseResolve(ctx, id)
}

// AssetIDs returns the loaded coin mapping.
func (c *Client) AssetIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	return c.assets.Entries(ctx)
}

// QuoteIDs returns the loaded quote currency mapping.
func (c *Client) QuoteIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	return c.quotes.Entries(ctx)
}

type cryptoMapResponse struct {
	Data []struct {
		ID     int    `json:"id"`
		Rank   int    `json:"rank"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"data"`
}

type fiatMapResponse struct {
	Data []struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// loadCryptoIDs asks the map endpoint for every crypto ticker in the
// registry. Tickers are not unique on CoinMarketCap, so the best ranked
// listing wins.
func (c *Client) loadCryptoIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	var tickers []string
	for _, s := range symbol.All() {
		if s.Kind() == symbol.KindCrypto {
			tickers = append(tickers, strings.ToUpper(s.Value()))
		}
	}
	params := url.Values{
		"listing_status": {"active"},
		"symbol":         {strings.Join(tickers, ",")},
	}
	raw, err := c.sendRequest(ctx, http.MethodGet, cryptoMapPath, params)
	if err != nil {
		return nil, err
	}
	var resp cryptoMapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding cryptocurrency map: %w", err)
	}

	ids := make(map[symbol.Symbol]string, len(tickers))
	ranks := make(map[symbol.Symbol]int, len(tickers))
	for _, e := range resp.Data {
		s, err := symbol.Parse(e.Symbol)
		if err != nil || s.Kind() != symbol.KindCrypto {
			continue
		}
		rank := e.Rank
		if rank <= 0 {
			rank = math.MaxInt
		}
		if best, ok := ranks[s]; ok && best <= rank {
			continue
		}
		ranks[s] = rank
		ids[s] = strconv.Itoa(e.ID)
	}
	return ids, nil
}

// loadConvertIDs merges fiat ids with crypto ids; convert_id accepts both.
func (c *Client) loadConvertIDs(ctx context.Context) (map[symbol.Symbol]string, error) {
	raw, err := c.sendRequest(ctx, http.MethodGet, fiatMapPath, nil)
	if err != nil {
		return nil, err
	}
	var resp fiatMapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding fiat map: %w", err)
	}

	ids := map[symbol.Symbol]string{}
	for _, e := range resp.Data {
		s, err := symbol.Parse(e.Symbol)
		if err != nil || s.Kind() != symbol.KindFiat {
			continue
		}
		ids[s] = strconv.Itoa(e.ID)
	}

	crypto, err := c.assets.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for s, id := range crypto {
		if _, ok := ids[s]; !ok {
			ids[s] = id
		}
	}
	return ids, nil
}
