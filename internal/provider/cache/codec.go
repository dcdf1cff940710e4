package cache

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// entry is the stored form of a CoinQuotes. Prices travel as decimal text
// so no precision is lost.
type entry struct {
	Provider string      `msgpack:"provider"`
	Prices   []entryLeaf `msgpack:"prices"`
	Raw      []byte      `msgpack:"raw,omitempty"`
}

type entryLeaf struct {
	Coin  string `msgpack:"c"`
	Quote string `msgpack:"q"`
	Price string `msgpack:"p"`
}

func encode(q *quote.CoinQuotes) ([]byte, error) {
	e := entry{Provider: q.Provider, Raw: q.Raw}
	for _, p := range q.Pairs() {
		e.Prices = append(e.Prices, entryLeaf{Coin: p.Coin.Value(), Quote: p.Quote.Value(), Price: p.Price.String()})
	}
	return msgpack.Marshal(&e)
}

func decode(b []byte) (*quote.CoinQuotes, error) {
	var e entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	builder := quote.NewBuilder(e.Provider, e.Raw)
	for _, l := range e.Prices {
		coin, err := symbol.Parse(l.Coin)
		if err != nil {
			return nil, err
		}
		q, err := symbol.Parse(l.Quote)
		if err != nil {
			return nil, err
		}
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, fmt.Errorf("price of %s/%s: %w", l.Coin, l.Quote, err)
		}
		if err := builder.Set(coin, q, price); err != nil {
			return nil, err
		}
	}
	return builder.Build(nil, nil)
}
