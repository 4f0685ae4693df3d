package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/iho/vaultledger/internal/domain"
)

// HTTPOracle fetches the collateral-per-debt price from an
// external price feed over HTTP. The feed returns a decimal string
// which is rebased onto a fixed-point integer with the configured
// number of price decimals.
type HTTPOracle struct {
	client   *http.Client
	endpoint string
	pair     domain.Pair
	decimals uint8
}

type priceResponse struct {
	Price string `json:"price"`
}

// NewHTTPOracle creates an oracle client for the given feed endpoint.
func NewHTTPOracle(client *http.Client, endpoint string, pair domain.Pair, decimals uint8) *HTTPOracle {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOracle{
		client:   client,
		endpoint: endpoint,
		pair:     pair,
		decimals: decimals,
	}
}

// LatestQuote returns the current price of one collateral unit in debt
// units, scaled by 10^decimals.
func (o *HTTPOracle) LatestQuote(ctx context.Context) (domain.Quote, error) {
	u, err := url.Parse(o.endpoint)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("parse oracle endpoint: %w", err)
	}
	q := u.Query()
	q.Set("base", o.pair.CollateralAsset)
	q.Set("quote", o.pair.DebtAsset)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("build oracle request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Quote{}, fmt.Errorf("oracle returned status %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.Quote{}, fmt.Errorf("decode oracle response: %w", err)
	}

	price, err := ParsePrice(body.Price, o.decimals)
	if err != nil {
		return domain.Quote{}, err
	}

	return domain.Quote{Price: price, Decimals: o.decimals}, nil
}

// ParsePrice rebases a decimal price string onto an unsigned integer
// scaled by 10^decimals. Fractional digits beyond the configured
// precision are truncated. Zero and negative prices are rejected so
// the engine fails closed on a broken feed.
func ParsePrice(s string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPrice, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidPrice, s)
	}

	rebased := d.Shift(int32(decimals)).Truncate(0)
	price, overflow := uint256.FromBig(rebased.BigInt())
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", domain.ErrInvalidPrice, s)
	}
	if price.IsZero() {
		return nil, fmt.Errorf("%w: %s rounds to zero", domain.ErrInvalidPrice, s)
	}

	return price, nil
}
