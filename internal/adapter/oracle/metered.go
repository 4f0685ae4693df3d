package oracle

import (
	"context"
	"math/big"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/usecase"
)

// MeteredOracle wraps another oracle and records the last served price
// and failed queries.
type MeteredOracle struct {
	inner   usecase.PriceOracle
	metrics *metrics.Metrics
}

// NewMeteredOracle creates a metering wrapper around inner.
func NewMeteredOracle(inner usecase.PriceOracle, m *metrics.Metrics) *MeteredOracle {
	return &MeteredOracle{inner: inner, metrics: m}
}

func (o *MeteredOracle) LatestQuote(ctx context.Context) (domain.Quote, error) {
	quote, err := o.inner.LatestQuote(ctx)
	if err != nil {
		o.metrics.OracleErrors.Inc()
		return domain.Quote{}, err
	}

	price, _ := new(big.Float).SetInt(quote.Price.ToBig()).Float64()
	o.metrics.OraclePrice.Set(price)

	return quote, nil
}
