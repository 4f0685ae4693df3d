package domain

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Pair describes the single collateral/debt market the engine serves.
// It is fixed at initialization and never mutated.
type Pair struct {
	CollateralAsset    string
	DebtAsset          string
	CollateralDecimals uint8
	DebtDecimals       uint8
}

// Validate checks the pair configuration.
func (p Pair) Validate() error {
	if p.CollateralAsset == "" || p.DebtAsset == "" {
		return fmt.Errorf("pair: asset identifiers must be set")
	}

	if p.CollateralDecimals > MaxDecimals || p.DebtDecimals > MaxDecimals {
		return fmt.Errorf("pair: decimals exceed maximum of %d", MaxDecimals)
	}

	return nil
}

// Quote is a price snapshot from the oracle: units of collateral asset
// per unit of debt asset, scaled by 10^Decimals. A rising price means
// each unit of debt demands more collateral, so borrow capacity shrinks.
type Quote struct {
	Price    *uint256.Int
	Decimals uint8
}

// Validate rejects quotes the conversion math cannot safely use. A zero
// price would divide by zero, so the engine fails closed on it.
func (q Quote) Validate() error {
	if q.Price == nil || q.Price.IsZero() {
		return ErrInvalidPrice
	}

	if q.Decimals > MaxDecimals {
		return ErrInvalidPrice
	}

	return nil
}

// CollateralToDebt converts a collateral amount into the largest debt
// amount it supports at the quoted price. The intermediate value is
// rebased from the debt asset's precision to the collateral asset's
// precision; truncation always lands in the engine's favor.
func (p Pair) CollateralToDebt(collateral *uint256.Int, q Quote) (*uint256.Int, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	num, overflow := new(uint256.Int).MulOverflow(collateral, pow10(q.Decimals))
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	num.Div(num, q.Price)

	return Scale(num, p.DebtDecimals, p.CollateralDecimals)
}

// DebtToCollateral converts a debt amount into the collateral amount
// required to support it at the quoted price.
func (p Pair) DebtToCollateral(debt *uint256.Int, q Quote) (*uint256.Int, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	num, overflow := new(uint256.Int).MulOverflow(debt, q.Price)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	num.Div(num, pow10(q.Decimals))

	return Scale(num, p.CollateralDecimals, p.DebtDecimals)
}

// IsCollateralized reports whether debt is supported by collateral at the
// quoted price. Debt-free positions are collateralized regardless of price.
func (p Pair) IsCollateralized(debt, collateral *uint256.Int, q Quote) (bool, error) {
	if debt == nil || debt.IsZero() {
		return true, nil
	}

	capacity, err := p.CollateralToDebt(collateral, q)
	if err != nil {
		return false, err
	}

	return debt.Cmp(capacity) <= 0, nil
}

// MinimumCollateral returns the smallest deposit balance that keeps the
// given debt collateralized at the quoted price.
func (p Pair) MinimumCollateral(debt *uint256.Int, q Quote) (*uint256.Int, error) {
	if debt == nil || debt.IsZero() {
		return uint256.NewInt(0), nil
	}

	return p.DebtToCollateral(debt, q)
}
