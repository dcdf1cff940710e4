package symbol

import (
	"errors"
	"fmt"
	"strings"
)

// Kind separates crypto assets from fiat currencies.
type Kind uint8

const (
	KindCrypto Kind = iota + 1
	KindFiat
)

func (k Kind) String() string {
	switch k {
	case KindCrypto:
		return "crypto"
	case KindFiat:
		return "fiat"
	default:
		return "unknown"
	}
}

// Symbol is a member of the closed coin/currency registry.
// The zero value is not a valid symbol.
type Symbol uint8

const (
	// Crypto
	BTC Symbol = iota + 1
	ETH
	XRP
	USDT
	SOL
	BNB
	DOGE
	USDC
	ADA
	TRX
	AVAX
	TON
	NOT
	SHIB
	DOT
	LTC
	BCH
	PEPE
	POL

	// Fiat
	USD
	EUR
	BRL
	RUB
	BDT
)

// ErrUnknownSymbol is returned by Parse for values outside the registry.
var ErrUnknownSymbol = errors.New("unknown symbol")

type item struct {
	value string
	name  string
	kind  Kind
}

var registry = [...]item{
	BTC:  {"btc", "Bitcoin", KindCrypto},
	ETH:  {"eth", "Ethereum", KindCrypto},
	XRP:  {"xrp", "XRP", KindCrypto},
	USDT: {"usdt", "Tether", KindCrypto},
	SOL:  {"sol", "Solana", KindCrypto},
	BNB:  {"bnb", "BNB", KindCrypto},
	DOGE: {"doge", "Dogecoin", KindCrypto},
	USDC: {"usdc", "USDC", KindCrypto},
	ADA:  {"ada", "Cardano", KindCrypto},
	TRX:  {"trx", "Tron", KindCrypto},
	AVAX: {"avax", "Avalanche", KindCrypto},
	TON:  {"ton", "Toncoin", KindCrypto},
	NOT:  {"not", "Notcoin", KindCrypto},
	SHIB: {"shib", "Shiba Inu", KindCrypto},
	DOT:  {"dot", "Polkadot", KindCrypto},
	LTC:  {"ltc", "Litecoin", KindCrypto},
	BCH:  {"bch", "Bitcoin Cash", KindCrypto},
	PEPE: {"pepe", "Pepe", KindCrypto},
	POL:  {"pol", "Polygon", KindCrypto},

	USD: {"usd", "United States Dollar", KindFiat},
	EUR: {"eur", "Euro", KindFiat},
	BRL: {"brl", "Brazilian Real", KindFiat},
	RUB: {"rub", "Russian ruble", KindFiat},
	BDT: {"bdt", "Bangladeshi taka", KindFiat},
}

var byValue = func() map[string]Symbol {
	m := make(map[string]Symbol, len(registry))
	for i := 1; i < len(registry); i++ {
		m[registry[i].value] = Symbol(i)
	}
	return m
}()

// Valid reports whether s is a registry member.
func (s Symbol) Valid() bool { return s > 0 && int(s) < len(registry) }

// Value is the stable lower-case ticker, e.g. "btc".
func (s Symbol) Value() string {
	if !s.Valid() {
		return ""
	}
	return registry[s].value
}

// Name is the human readable name, e.g. "Bitcoin".
func (s Symbol) Name() string {
	if !s.Valid() {
		return ""
	}
	return registry[s].name
}

func (s Symbol) Kind() Kind {
	if !s.Valid() {
		return 0
	}
	return registry[s].kind
}

// String returns the display form used in messages: "Bitcoin (btc)".
func (s Symbol) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Symbol(%d)", uint8(s))
	}
	return registry[s].name + " (" + registry[s].value + ")"
}

func (s Symbol) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSymbol, uint8(s))
	}
	return []byte(registry[s].value), nil
}

func (s *Symbol) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Parse looks up a symbol by its value, ignoring case and surrounding spaces.
func Parse(v string) (Symbol, error) {
	if s, ok := byValue[strings.ToLower(strings.TrimSpace(v))]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, v)
}

// ParseList parses a comma separated list, skipping empty parts.
func ParseList(csv string) ([]Symbol, error) {
	parts := strings.Split(csv, ",")
	out := make([]Symbol, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		s, err := Parse(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// All returns every registry member in declaration order.
func All() []Symbol {
	out := make([]Symbol, 0, len(registry)-1)
	for i := 1; i < len(registry); i++ {
		out = append(out, Symbol(i))
	}
	return out
}

// Values maps symbols to their values, preserving order.
func Values(ss []Symbol) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Value()
	}
	return out
}
