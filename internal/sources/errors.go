// internal/sources/errors.go
package sources

import "errors"

var (
	// ErrUnexpectedStatus wraps any non-2xx answer other than 404.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrNotFound means the provider does not know the token.
	ErrNotFound = errors.New("token not found")
	// ErrNoPairs means DexScreener knows no trading pair for the token.
	ErrNoPairs = errors.New("no pairs found")
	// ErrMissingAPIKey is returned by sources that cannot work anonymously.
	ErrMissingAPIKey = errors.New("api key not configured")
	// ErrMalformedResponse covers bodies that decode but have the wrong shape.
	ErrMalformedResponse = errors.New("malformed response")
)
