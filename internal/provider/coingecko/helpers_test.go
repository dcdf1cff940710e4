package coingecko_test

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"anycoin/internal/httpx/httpxmock"
	"anycoin/internal/provider/coingecko"
)

const (
	coinsMarketsPath = "/api/v3/coins/markets"
	vsCurrenciesPath = "/api/v3/simple/supported_vs_currencies"
	simplePricePath  = "/api/v3/simple/price"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("fixtures", name))
	require.NoError(t, err)
	return b
}

func reply(status int, body []byte) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewReader(body)),
		}, nil
	}
}

type pathIs string

func (m pathIs) Matches(x any) bool {
	req, ok := x.(*http.Request)
	return ok && req.URL.Path == string(m)
}

func (m pathIs) String() string { return "request to " + string(m) }

// newListedClient serves both listings at most once.
func newListedClient(t *testing.T) (*coingecko.Client, *httpxmock.MockHTTPClient) {
	t.Helper()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(pathIs(coinsMarketsPath)).
		DoAndReturn(reply(http.StatusOK, fixture(t, "coins_markets.json"))).
		MaxTimes(1)
	httpClient.EXPECT().
		Do(pathIs(vsCurrenciesPath)).
		DoAndReturn(reply(http.StatusOK, fixture(t, "supported_vs_currencies.json"))).
		MaxTimes(1)

	client, err := coingecko.New("test-key", coingecko.WithHTTPClient(httpClient))
	require.NoError(t, err)
	return client, httpClient
}
