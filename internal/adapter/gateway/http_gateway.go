package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/holiman/uint256"
)

// HTTPGateway moves assets through an external custody service. The
// ledger records a transfer only when the custody call succeeds, so
// every request here happens before the surrounding transaction
// commits.
type HTTPGateway struct {
	client   *http.Client
	endpoint string
}

type transferRequest struct {
	AccountID string `json:"account_id"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Direction string `json:"direction"`
}

type transferError struct {
	Error string `json:"error"`
}

// NewHTTPGateway creates a custody client for the given endpoint.
func NewHTTPGateway(client *http.Client, endpoint string) *HTTPGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPGateway{client: client, endpoint: endpoint}
}

// TransferIn pulls amount of asset from the account into custody.
func (g *HTTPGateway) TransferIn(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	return g.transfer(ctx, accountID, asset, amount, "in")
}

// TransferOut releases amount of asset from custody to the account.
func (g *HTTPGateway) TransferOut(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	return g.transfer(ctx, accountID, asset, amount, "out")
}

func (g *HTTPGateway) transfer(ctx context.Context, accountID, asset string, amount *uint256.Int, direction string) error {
	body, err := json.Marshal(transferRequest{
		AccountID: accountID,
		Asset:     asset,
		Amount:    amount.Dec(),
		Direction: direction,
	})
	if err != nil {
		return fmt.Errorf("encode transfer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/transfers", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build transfer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("custody transfer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var te transferError
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		_ = json.Unmarshal(data, &te)
	}
	if te.Error != "" {
		return fmt.Errorf("custody rejected transfer (status %d): %s", resp.StatusCode, te.Error)
	}
	return fmt.Errorf("custody rejected transfer (status %d)", resp.StatusCode)
}
