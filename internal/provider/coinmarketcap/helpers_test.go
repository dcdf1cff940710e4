package coinmarketcap_test

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	cryptoMapPath    = "/v1/cryptocurrency/map"
	fiatMapPath      = "/v1/fiat/map"
	quotesLatestPath = "/v2/cryptocurrency/quotes/latest"
)

// fixture loads a canned API response from fixtures/.
func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("fixtures", name))
	require.NoError(t, err)
	return b
}

// reply builds a fresh response for every call so bodies are never shared.
func reply(status int, body []byte) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewReader(body)),
		}, nil
	}
}

// pathIs matches requests by URL path.
type pathIs string

func (m pathIs) Matches(x any) bool {
	req, ok := x.(*http.Request)
	return ok && req.URL.Path == string(m)
}

func (m pathIs) String() string { return "request to " + string(m) }
