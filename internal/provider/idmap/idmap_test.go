package idmap_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anycoin/internal/provider"
	"anycoin/internal/provider/idmap"
	"anycoin/internal/symbol"
)

var cmcCrypto = map[symbol.Symbol]string{
	symbol.BTC: "1",
	symbol.ETH: "1027",
	symbol.TRX: "1958",
	symbol.TON: "11419",
}

func countingLoader(m map[symbol.Symbol]string, calls *atomic.Int32) idmap.Loader {
	return func(context.Context) (map[symbol.Symbol]string, error) {
		calls.Add(1)
		return m, nil
	}
}

func TestTable_RoundTrip(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	table := idmap.New("coinmarketcap", provider.RoleAsset, countingLoader(cmcCrypto, &calls))

	for s, want := range cmcCrypto {
		id, err := table.Resolve(t.Context(), s)
		require.NoError(t, err)
		require.Equal(t, want, id)

		back, err := table.ReverseResolve(t.Context(), id)
		require.NoError(t, err)
		require.Equal(t, s, back)
	}

	// Assert: the loader ran once for all lookups.
	require.EqualValues(t, 1, calls.Load())
}

func TestTable_ResolveNotSupported(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	table := idmap.New("coinmarketcap", provider.RoleAsset, countingLoader(cmcCrypto, &calls))

	for _, s := range symbol.All() {
		if _, mapped := cmcCrypto[s]; mapped {
			continue
		}
		_, err := table.Resolve(t.Context(), s)
		require.ErrorIs(t, err, provider.ErrAssetNotSupported)
		require.Contains(t, err.Error(), s.Name())
	}
}

func TestTable_ReverseResolveNotSupported(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	table := idmap.New("coinmarketcap", provider.RoleQuote, countingLoader(map[symbol.Symbol]string{symbol.USD: "2781"}, &calls))

	id := "FAKE-CONVERTER-ID|UUID:4cb1afd7-5e95-429f-89f6-cd8dbad27269"
	_, err := table.ReverseResolve(t.Context(), id)
	require.ErrorIs(t, err, provider.ErrQuoteCurrencyNotSupported)
	require.Contains(t, err.Error(), id)
}

func TestTable_ResolveAll(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	table := idmap.New("coinmarketcap", provider.RoleAsset, countingLoader(cmcCrypto, &calls))

	ids, err := table.ResolveAll(t.Context(), []symbol.Symbol{symbol.ETH, symbol.BTC})
	require.NoError(t, err)
	require.Equal(t, []string{"1027", "1"}, ids)

	_, err = table.ResolveAll(t.Context(), []symbol.Symbol{symbol.BTC, symbol.PEPE})
	var nse *provider.NotSupportedError
	require.ErrorAs(t, err, &nse)
	require.Equal(t, symbol.PEPE, nse.Symbol)
}

func TestTable_LoadErrorNotCached(t *testing.T) {
	t.Parallel()

	// Arrange: the first load fails, the second succeeds.
	boom := errors.New("listing unavailable")
	var calls atomic.Int32
	table := idmap.New("coingecko", provider.RoleAsset, func(context.Context) (map[symbol.Symbol]string, error) {
		if calls.Add(1) == 1 {
			return nil, boom
		}
		return map[symbol.Symbol]string{symbol.BTC: "bitcoin"}, nil
	})

	// Act / Assert
	_, err := table.Resolve(t.Context(), symbol.BTC)
	require.ErrorIs(t, err, boom)

	id, err := table.Resolve(t.Context(), symbol.BTC)
	require.NoError(t, err)
	require.Equal(t, "bitcoin", id)
	require.EqualValues(t, 2, calls.Load())
}

func TestTable_TTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 19, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	var calls atomic.Int32
	table := idmap.New("coinmarketcap", provider.RoleAsset, countingLoader(cmcCrypto, &calls),
		idmap.WithTTL(time.Hour), idmap.WithClock(clock))

	_, err := table.Resolve(t.Context(), symbol.BTC)
	require.NoError(t, err)
	advance(30 * time.Minute)
	_, err = table.Resolve(t.Context(), symbol.BTC)
	require.NoError(t, err)
	require.EqualValues(t, 1, calls.Load())

	// Assert: expiry triggers a reload.
	advance(31 * time.Minute)
	_, err = table.Resolve(t.Context(), symbol.BTC)
	require.NoError(t, err)
	require.EqualValues(t, 2, calls.Load())

	// Assert: Invalidate triggers a reload.
	table.Invalidate()
	_, err = table.Entries(t.Context())
	require.NoError(t, err)
	require.EqualValues(t, 3, calls.Load())
}

func TestTable_ConcurrentFirstUseLoadsOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	table := idmap.New("coinmarketcap", provider.RoleAsset, func(context.Context) (map[symbol.Symbol]string, error) {
		calls.Add(1)
		<-release
		return cmcCrypto, nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := table.Resolve(context.Background(), symbol.ETH)
			assert.NoError(t, err)
			assert.Equal(t, "1027", id)
		}()
	}
	close(release)
	wg.Wait()

	require.EqualValues(t, 1, calls.Load())
}

func TestTable_WaiterHonoursOwnContext(t *testing.T) {
	t.Parallel()

	// Arrange: the first caller's load blocks until released.
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	table := idmap.New("coingecko", provider.RoleAsset, func(context.Context) (map[symbol.Symbol]string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return cmcCrypto, nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := table.Resolve(context.Background(), symbol.BTC)
		first <- err
	}()
	<-started

	// Act: a second caller gives up on its own deadline.
	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()
	_, err := table.Resolve(ctx, symbol.ETH)

	// Assert
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
	require.NoError(t, <-first)
	require.EqualValues(t, 1, calls.Load())
}

func TestTable_WaiterRetriesAfterFailedLoad(t *testing.T) {
	t.Parallel()

	// Arrange: the first load fails once both callers are in.
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	table := idmap.New("coingecko", provider.RoleAsset, func(context.Context) (map[symbol.Symbol]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			return nil, errors.New("listing unavailable")
		}
		return cmcCrypto, nil
	})

	first := make(chan error, 1)
	go func() {
		_, err := table.Resolve(context.Background(), symbol.BTC)
		first <- err
	}()
	<-started

	second := make(chan error, 1)
	go func() {
		_, err := table.Resolve(context.Background(), symbol.ETH)
		second <- err
	}()

	// Act
	close(release)

	// Assert: the failure is not shared; the second caller loads again.
	require.ErrorContains(t, <-first, "listing unavailable")
	require.NoError(t, <-second)
	require.EqualValues(t, 2, calls.Load())
}

func TestTable_SharedIDReverseOwner(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	table := idmap.New("x", provider.RoleQuote, countingLoader(map[symbol.Symbol]string{
		symbol.USDC: "same",
		symbol.USDT: "same",
	}, &calls))

	s, err := table.ReverseResolve(t.Context(), "same")
	require.NoError(t, err)
	// USDT is declared before USDC in the registry.
	require.Equal(t, symbol.USDT, s)
}
