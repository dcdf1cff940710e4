package provider

import (
	"errors"
	"fmt"

	"anycoin/internal/symbol"
)

var (
	ErrQuoteRetrievalFailed      = errors.New("error retrieving coin quotes")
	ErrAssetNotSupported         = errors.New("asset not supported by provider")
	ErrQuoteCurrencyNotSupported = errors.New("quote currency not supported by provider")
	ErrNoProviders               = errors.New("no providers configured")
)

// Role says which identifier table a symbol was looked up in.
type Role uint8

const (
	RoleAsset Role = iota + 1
	RoleQuote
)

func (r Role) String() string {
	switch r {
	case RoleAsset:
		return "asset"
	case RoleQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// NotSupportedError reports a symbol (or a provider id, on reverse lookup)
// missing from a provider's identifier mapping.
type NotSupportedError struct {
	Provider string
	Role     Role
	// Symbol is set on forward lookups, ID on reverse lookups.
	Symbol symbol.Symbol
	ID     string
}

func (e *NotSupportedError) Error() string {
	noun := "crypto coin"
	if e.Role == RoleQuote {
		noun = "converter coin"
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s with id %s not supported", e.Provider, noun, e.ID)
	}
	return fmt.Sprintf("%s: %s %s not supported", e.Provider, noun, e.Symbol)
}

func (e *NotSupportedError) Is(target error) bool {
	switch target {
	case ErrAssetNotSupported:
		return e.Role == RoleAsset
	case ErrQuoteCurrencyNotSupported:
		return e.Role == RoleQuote
	}
	return false
}

// QuoteRetrievalError is the single error kind surfaced by GetCoinQuotes.
// Err keeps the original cause; Payload keeps the raw provider body when the
// provider itself reported the failure.
type QuoteRetrievalError struct {
	Provider string
	Reason   string
	Payload  []byte
	Err      error
}

func (e *QuoteRetrievalError) Error() string {
	msg := e.Provider + ": " + ErrQuoteRetrievalFailed.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if len(e.Payload) > 0 {
		msg += ". API response: " + string(e.Payload)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *QuoteRetrievalError) Unwrap() error { return e.Err }

func (e *QuoteRetrievalError) Is(target error) bool { return target == ErrQuoteRetrievalFailed }

// Retrieval wraps err as a QuoteRetrievalError for the named provider.
func Retrieval(name, reason string, err error) error {
	return &QuoteRetrievalError{Provider: name, Reason: reason, Err: err}
}

// Wrap is Retrieval for errors that may already be retrieval errors, such
// as id listing failures; those are returned unchanged.
func Wrap(name, reason string, err error) error {
	if errors.Is(err, ErrQuoteRetrievalFailed) {
		return err
	}
	return Retrieval(name, reason, err)
}

// IsRecoverable reports whether another provider may succeed where this one failed.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrQuoteRetrievalFailed) ||
		errors.Is(err, ErrAssetNotSupported) ||
		errors.Is(err, ErrQuoteCurrencyNotSupported)
}
