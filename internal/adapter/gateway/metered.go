package gateway

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/usecase"
)

// MeteredGateway wraps another gateway and counts transfers by direction.
type MeteredGateway struct {
	inner   usecase.AssetGateway
	metrics *metrics.Metrics
}

// NewMeteredGateway creates a metering wrapper around inner.
func NewMeteredGateway(inner usecase.AssetGateway, m *metrics.Metrics) *MeteredGateway {
	return &MeteredGateway{inner: inner, metrics: m}
}

func (g *MeteredGateway) TransferIn(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	if err := g.inner.TransferIn(ctx, accountID, asset, amount); err != nil {
		g.metrics.CustodyErrors.WithLabelValues("in").Inc()
		return err
	}
	g.metrics.CustodyTransfers.WithLabelValues("in").Inc()
	return nil
}

func (g *MeteredGateway) TransferOut(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	if err := g.inner.TransferOut(ctx, accountID, asset, amount); err != nil {
		g.metrics.CustodyErrors.WithLabelValues("out").Inc()
		return err
	}
	g.metrics.CustodyTransfers.WithLabelValues("out").Inc()
	return nil
}
