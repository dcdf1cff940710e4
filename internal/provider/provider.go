package provider

import (
	"context"

	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// Provider returns quotes for coins denominated in the given currencies.
// Every failure matches ErrQuoteRetrievalFailed, or ErrAssetNotSupported /
// ErrQuoteCurrencyNotSupported when a symbol has no provider id.
//
//go:generate mockgen -package=providermock -destination=providermock/mock_provider.go -source=provider.go Provider
type Provider interface {
	Name() string
	GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error)
}

// Resolver translates registry symbols to provider-native identifiers and back.
type Resolver interface {
	AssetID(ctx context.Context, s symbol.Symbol) (string, error)
	AssetSymbol(ctx context.Context, id string) (symbol.Symbol, error)
	QuoteID(ctx context.Context, s symbol.Symbol) (string, error)
	QuoteSymbol(ctx context.Context, id string) (symbol.Symbol, error)
}
