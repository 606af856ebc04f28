// internal/collector/source.go
package collector

import (
	"context"
	"errors"

	"github.com/rovshanmuradov/solana-market-collector/internal/cache"
	"github.com/rovshanmuradov/solana-market-collector/internal/market"
)

// Kind decides which options enable a source.
type Kind int

const (
	// KindCore sources (price, volume) are always dispatched.
	KindCore Kind = iota
	// KindOnChain sources need Options.IncludeOnChain.
	KindOnChain
	// KindSocial sources need Options.IncludeSocial or IncludeHistorical.
	KindSocial
)

func (k Kind) String() string {
	switch k {
	case KindCore:
		return "core"
	case KindOnChain:
		return "onchain"
	case KindSocial:
		return "social"
	default:
		return "unknown"
	}
}

// Source is one external market-data provider normalized into partial
// records. Fetch returns a partial whose DataSource names the source, or an
// error. It must honor ctx cancellation.
type Source interface {
	Name() string
	Kind() Kind
	Fetch(ctx context.Context, address string) (*market.TokenMarketRecord, error)
}

// Cache memoizes partial records per (source, address).
type Cache interface {
	Get(ctx context.Context, key cache.Key) (*market.TokenMarketRecord, bool)
	Set(ctx context.Context, key cache.Key, record *market.TokenMarketRecord)
}

// ErrEmptyResult is reported when a source returns neither data nor an
// error.
var ErrEmptyResult = errors.New("source returned no data")

// Outcome is the result of one source call: either a partial record or the
// reason it failed.
type Outcome struct {
	Source  string
	Partial *market.TokenMarketRecord
	Err     error
	Cached  bool
}

// OK reports whether the outcome carries a usable partial.
func (o Outcome) OK() bool {
	return o.Err == nil && !o.Partial.IsEmpty()
}
