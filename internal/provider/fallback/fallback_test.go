package fallback_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"anycoin/internal/provider"
	"anycoin/internal/provider/fallback"
	"anycoin/internal/provider/providermock"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

var (
	coins  = []symbol.Symbol{symbol.BTC, symbol.TRX}
	quotes = []symbol.Symbol{symbol.USD, symbol.EUR}
)

func newMock(ctrl *gomock.Controller, name string) *providermock.MockProvider {
	m := providermock.NewMockProvider(ctrl)
	m.EXPECT().Name().Return(name).AnyTimes()
	return m
}

func sample(name string) *quote.CoinQuotes {
	b := quote.NewBuilder(name, nil)
	for _, c := range coins {
		for _, q := range quotes {
			_ = b.Set(c, q, decimal.NewFromInt(1))
		}
	}
	out, _ := b.Build(coins, quotes)
	return out
}

func TestName(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := fallback.New([]provider.Provider{newMock(ctrl, "coinmarketcap"), newMock(ctrl, "coingecko")})

	require.Equal(t, "fallback(coinmarketcap,coingecko)", p.Name())
	require.Len(t, p.Providers(), 2)
	require.Equal(t, "coinmarketcap", p.Providers()[0].Name())
}

func TestGetCoinQuotes_FirstSucceeds(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	first := newMock(ctrl, "first")
	second := newMock(ctrl, "second")
	want := sample("first")

	first.EXPECT().GetCoinQuotes(gomock.Any(), coins, quotes).Return(want, nil).Times(1)
	second.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Act
	got, err := fallback.New([]provider.Provider{first, second}).GetCoinQuotes(t.Context(), coins, quotes)

	// Assert
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestGetCoinQuotes_FallsBack(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
	}{
		{
			name: "retrieval failure",
			err:  provider.Retrieval("first", "http status 500, error code 0", nil),
		},
		{
			name: "asset not supported",
			err:  &provider.NotSupportedError{Provider: "first", Role: provider.RoleAsset, Symbol: symbol.TRX},
		},
		{
			name: "quote currency not supported",
			err:  &provider.NotSupportedError{Provider: "first", Role: provider.RoleQuote, Symbol: symbol.EUR},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			ctrl := gomock.NewController(t)
			first := newMock(ctrl, "first")
			second := newMock(ctrl, "second")
			want := sample("second")

			gomock.InOrder(
				first.EXPECT().GetCoinQuotes(gomock.Any(), coins, quotes).Return(nil, tc.err),
				second.EXPECT().GetCoinQuotes(gomock.Any(), coins, quotes).Return(want, nil),
			)

			// Act
			got, err := fallback.New([]provider.Provider{first, second}).GetCoinQuotes(t.Context(), coins, quotes)

			// Assert
			require.NoError(t, err)
			require.Equal(t, "second", got.Provider)
		})
	}
}

func TestGetCoinQuotes_AllFail(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	first := newMock(ctrl, "coinmarketcap")
	second := newMock(ctrl, "coingecko")
	firstErr := provider.Retrieval("coinmarketcap", "performing request", errors.New("connection refused"))
	secondErr := &provider.NotSupportedError{Provider: "coingecko", Role: provider.RoleAsset, Symbol: symbol.NOT}

	first.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, firstErr)
	second.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, secondErr)

	// Act
	got, err := fallback.New([]provider.Provider{first, second}).GetCoinQuotes(t.Context(), coins, quotes)

	// Assert: one retrieval error keeping every diagnostic.
	require.Nil(t, got)
	require.ErrorIs(t, err, provider.ErrQuoteRetrievalFailed)
	require.ErrorIs(t, err, firstErr)
	require.ErrorIs(t, err, provider.ErrAssetNotSupported)
	require.Contains(t, err.Error(), "coinmarketcap")
	require.Contains(t, err.Error(), "coingecko")
	require.Contains(t, err.Error(), "connection refused")
}

func TestGetCoinQuotes_UnrecoverableStops(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	first := newMock(ctrl, "first")
	second := newMock(ctrl, "second")
	boom := errors.New("boom")

	first.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)
	second.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := fallback.New([]provider.Provider{first, second}).GetCoinQuotes(t.Context(), coins, quotes)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, provider.ErrQuoteRetrievalFailed)
}

func TestGetCoinQuotes_CancelledStops(t *testing.T) {
	t.Parallel()

	// Arrange: the first provider observes cancellation.
	ctrl := gomock.NewController(t)
	first := newMock(ctrl, "first")
	second := newMock(ctrl, "second")
	ctx, cancel := context.WithCancel(t.Context())

	first.EXPECT().
		GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []symbol.Symbol, []symbol.Symbol) (*quote.CoinQuotes, error) {
			cancel()
			return nil, provider.Retrieval("first", "performing request", context.Canceled)
		})
	second.EXPECT().GetCoinQuotes(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	// Act
	_, err := fallback.New([]provider.Provider{first, second}).GetCoinQuotes(ctx, coins, quotes)

	// Assert
	require.ErrorIs(t, err, context.Canceled)
}

func TestGetCoinQuotes_NoProviders(t *testing.T) {
	t.Parallel()

	_, err := fallback.New(nil).GetCoinQuotes(t.Context(), coins, quotes)
	require.ErrorIs(t, err, provider.ErrNoProviders)
}
