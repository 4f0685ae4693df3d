package oracle

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// FixedOracle always returns the same quote. Used for local
// development and as a deterministic stand-in when no feed is
// configured.
type FixedOracle struct {
	quote domain.Quote
}

// NewFixedOracle creates an oracle pinned to a single price.
func NewFixedOracle(price *uint256.Int, decimals uint8) *FixedOracle {
	return &FixedOracle{quote: domain.Quote{Price: price, Decimals: decimals}}
}

func (o *FixedOracle) LatestQuote(_ context.Context) (domain.Quote, error) {
	if err := o.quote.Validate(); err != nil {
		return domain.Quote{}, err
	}
	return o.quote, nil
}
