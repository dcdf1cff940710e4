package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"anycoin/internal/provider"
	"anycoin/internal/quote"
	"anycoin/internal/symbol"
)

// maxSymbols bounds each side of a request.
const maxSymbols = 100

type server struct {
	quotes  provider.Provider
	timeout time.Duration
	logger  *zap.Logger
}

type quotesRequest struct {
	Coins  []symbol.Symbol `json:"coins"`
	Quotes []symbol.Symbol `json:"quotes"`
}

type quotesResponse struct {
	Provider string                                               `json:"provider"`
	Quotes   map[symbol.Symbol]map[symbol.Symbol]decimal.Decimal `json:"quotes"`
	Pairs    []quote.Pair                                         `json:"pairs"`
}

type symbolInfo struct {
	Value string `json:"value"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/symbols", s.handleSymbols)
	mux.HandleFunc("/api/quotes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetQuotes(w, r)
		case http.MethodPost:
			s.handlePostQuotes(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
	return chain(mux,
		apiHeaders,
		compress,
		recoverPanic(s.logger),
		logRequests(s.logger),
		limitBody(maxBodyBytes),
	)
}

func (s *server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	all := symbol.All()
	out := make([]symbolInfo, 0, len(all))
	for _, sym := range all {
		out = append(out, symbolInfo{Value: sym.Value(), Name: sym.Name(), Kind: sym.Kind().String()})
	}
	writeJSON(w, http.StatusOK, map[string][]symbolInfo{"symbols": out})
}

func (s *server) handleGetQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("coins")) == "" || strings.TrimSpace(q.Get("quotes")) == "" {
		writeError(w, http.StatusBadRequest, "coins and quotes query params are required")
		return
	}
	coins, err := symbol.ParseList(q.Get("coins"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quotes, err := symbol.ParseList(q.Get("quotes"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeQuotes(w, r.Context(), coins, quotes)
}

func (s *server) handlePostQuotes(w http.ResponseWriter, r *http.Request) {
	var body quotesRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			rejectOversized(s.logger, w, r, tooLarge)
			return
		}
		msg := "invalid JSON body"
		if errors.Is(err, symbol.ErrUnknownSymbol) {
			msg = err.Error()
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	s.writeQuotes(w, r.Context(), body.Coins, body.Quotes)
}

func (s *server) writeQuotes(w http.ResponseWriter, rctx context.Context, coins, quotes []symbol.Symbol) {
	if len(coins) == 0 || len(quotes) == 0 {
		writeError(w, http.StatusBadRequest, "coins and quotes cannot be empty")
		return
	}
	if len(coins) > maxSymbols || len(quotes) > maxSymbols {
		writeError(w, http.StatusBadRequest, "too many symbols")
		return
	}

	ctx, cancel := context.WithTimeout(rctx, s.timeout)
	defer cancel()

	q, err := s.quotes.GetCoinQuotes(ctx, coins, quotes)
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("quote request failed",
			zap.Strings("coins", symbol.Values(coins)),
			zap.Strings("quotes", symbol.Values(quotes)),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, quotesResponse{Provider: q.Provider, Quotes: q.Coins, Pairs: q.Pairs()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, provider.ErrNoProviders):
		return http.StatusServiceUnavailable
	case provider.IsRecoverable(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
