package gateway

import (
	"context"
	"log/slog"

	"github.com/holiman/uint256"
)

// NoopGateway acknowledges every transfer without moving anything.
// Used for local development when no custody service is running.
type NoopGateway struct {
	logger *slog.Logger
}

// NewNoopGateway creates a gateway that only logs transfers.
func NewNoopGateway(logger *slog.Logger) *NoopGateway {
	return &NoopGateway{logger: logger}
}

func (g *NoopGateway) TransferIn(_ context.Context, accountID, asset string, amount *uint256.Int) error {
	g.logger.Info("skipping custody transfer in", "account_id", accountID, "asset", asset, "amount", amount.Dec())
	return nil
}

func (g *NoopGateway) TransferOut(_ context.Context, accountID, asset string, amount *uint256.Int) error {
	g.logger.Info("skipping custody transfer out", "account_id", accountID, "asset", asset, "amount", amount.Dec())
	return nil
}
