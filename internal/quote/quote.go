package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"anycoin/internal/symbol"
)

// ErrMissingPair is returned when a requested (coin, quote) pair is absent
// from a provider response.
var ErrMissingPair = errors.New("requested pair missing from response")

// ErrDuplicatePair is returned when a provider response carries the same pair twice.
var ErrDuplicatePair = errors.New("duplicate pair in response")

// CoinQuotes is the normalized result every provider produces.
// Coins is keyed by the priced coin, then by the quote currency.
type CoinQuotes struct {
	Provider string
	Coins    map[symbol.Symbol]map[symbol.Symbol]decimal.Decimal
	// Raw is the unmodified provider payload, kept for debugging.
	Raw json.RawMessage
}

// Pair is a flattened (coin, quote, price) leaf.
type Pair struct {
	Coin  symbol.Symbol   `json:"coin"`
	Quote symbol.Symbol   `json:"quote"`
	Price decimal.Decimal `json:"price"`
}

// Price returns the price of coin denominated in q.
func (c *CoinQuotes) Price(coin, q symbol.Symbol) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Decimal{}, false
	}
	p, ok := c.Coins[coin][q]
	return p, ok
}

// Len is the number of leaf prices.
func (c *CoinQuotes) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, qs := range c.Coins {
		n += len(qs)
	}
	return n
}

// Pairs returns all leaves ordered by coin then quote registry order.
func (c *CoinQuotes) Pairs() []Pair {
	out := make([]Pair, 0, c.Len())
	if c == nil {
		return out
	}
	for coin, qs := range c.Coins {
		for q, p := range qs {
			out = append(out, Pair{Coin: coin, Quote: q, Price: p})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Coin != out[j].Coin {
			return out[i].Coin < out[j].Coin
		}
		return out[i].Quote < out[j].Quote
	})
	return out
}

func (c *CoinQuotes) String() string {
	if c == nil {
		return "CoinQuotes(nil)"
	}
	s := fmt.Sprintf("CoinQuotes(provider=%s", c.Provider)
	for _, p := range c.Pairs() {
		s += fmt.Sprintf(" %s/%s=%s", p.Coin.Value(), p.Quote.Value(), p.Price.String())
	}
	return s + ")"
}

// Builder assembles a CoinQuotes from normalized provider entries.
type Builder struct {
	q *CoinQuotes
}

func NewBuilder(provider string, raw json.RawMessage) *Builder {
	return &Builder{q: &CoinQuotes{
		Provider: provider,
		Coins:    map[symbol.Symbol]map[symbol.Symbol]decimal.Decimal{},
		Raw:      raw,
	}}
}

// Set records one leaf. A pair may only be set once.
func (b *Builder) Set(coin, q symbol.Symbol, price decimal.Decimal) error {
	qs, ok := b.q.Coins[coin]
	if !ok {
		qs = map[symbol.Symbol]decimal.Decimal{}
		b.q.Coins[coin] = qs
	}
	if _, dup := qs[q]; dup {
		return fmt.Errorf("%w: %s/%s", ErrDuplicatePair, coin.Value(), q.Value())
	}
	qs[q] = price
	return nil
}

// Require checks that every requested pair has been set.
func (b *Builder) Require(coins, quotes []symbol.Symbol) error {
	for _, coin := range coins {
		for _, q := range quotes {
			if _, ok := b.q.Coins[coin][q]; !ok {
				return fmt.Errorf("%w: %s in %s", ErrMissingPair, coin, q)
			}
		}
	}
	return nil
}

// Build returns the assembled model after checking the requested pairs.
func (b *Builder) Build(coins, quotes []symbol.Symbol) (*CoinQuotes, error) {
	if err := b.Require(coins, quotes); err != nil {
		return nil, err
	}
	return b.q, nil
}
