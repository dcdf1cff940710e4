// Package fallback queries providers in order and returns the first full answer.
package fallback

import (
	"context"
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// Provider is a provider.Provider that delegates to an ordered chain.
// Results are never merged across providers.
type Provider struct {
	providers []provider.Provider
	logger    *zap.Logger
}

type Option func(*Provider)

func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(providers []provider.Provider, opts ...Option) *Provider {
	p := &Provider{
		providers: append([]provider.Provider(nil), providers...),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name lists the chain, e.g. "fallback(coinmarketcap,coingecko)".
func (p *Provider) Name() string {
	names := make([]string, len(p.providers))
	for i, pr := range p.providers {
		names[i] = pr.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

// Providers returns the chain in query order.
func (p *Provider) Providers() []provider.Provider {
	return append([]provider.Provider(nil), p.providers...)
}

// GetCoinQuotes returns the first provider's complete answer. Recoverable
// failures move on to the next provider; anything else, cancellation
// included, stops the chain.
func (p *Provider) GetCoinQuotes(ctx context.Context, coins, quotes []symbol.Symbol) (*quote.CoinQuotes, error) {
	if len(p.providers) == 0 {
		return nil, provider.ErrNoProviders
	}

	var errs *multierror.Error
	for _, pr := range p.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		q, err := pr.GetCoinQuotes(ctx, coins, quotes)
		if err == nil {
			return q, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		if !provider.IsRecoverable(err) {
			p.logger.Error("provider failed with unrecoverable error",
				zap.String("provider", pr.Name()),
				zap.Error(err),
			)
			return nil, err
		}

		p.logger.Warn("provider failed, trying next",
			zap.String("provider", pr.Name()),
			zap.Strings("coins", symbol.Values(coins)),
			zap.Strings("quotes", symbol.Values(quotes)),
			zap.Error(err),
		)
		errs = multierror.Append(errs, err)
	}

	return nil, &provider.QuoteRetrievalError{
		Provider: p.Name(),
		Reason:   "all providers failed",
		Err:      errs.ErrorOrNil(),
	}
}
