package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Position is the per-account ledger entry: deposited collateral and
// outstanding debt, each in its own asset's base units. Accounts that have
// never been touched hold the zero position.
type Position struct {
	AccountID string
	Deposit   *uint256.Int
	Debt      *uint256.Int
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPosition returns the zero position for an account.
func NewPosition(accountID string) *Position {
	return &Position{
		AccountID: accountID,
		Deposit:   uint256.NewInt(0),
		Debt:      uint256.NewInt(0),
	}
}

// IsZero reports whether both balances are zero.
func (p *Position) IsZero() bool {
	return p.Deposit.IsZero() && p.Debt.IsZero()
}

// AfterDeposit returns the deposit balance after crediting amount.
func (p *Position) AfterDeposit(amount *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(p.Deposit, amount)
	if overflow {
		return nil, ErrArithmeticOverflow
	}

	return sum, nil
}

// AfterBorrow returns the debt balance after borrowing amount.
func (p *Position) AfterBorrow(amount *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(p.Debt, amount)
	if overflow {
		return nil, ErrArithmeticOverflow
	}

	return sum, nil
}

// AfterRepay returns the debt balance after repaying amount.
func (p *Position) AfterRepay(amount *uint256.Int) (*uint256.Int, error) {
	if amount.Cmp(p.Debt) > 0 {
		return nil, ErrArithmeticUnderflow
	}

	return new(uint256.Int).Sub(p.Debt, amount), nil
}

// AfterWithdraw returns the deposit balance after debiting amount.
func (p *Position) AfterWithdraw(amount *uint256.Int) (*uint256.Int, error) {
	if amount.Cmp(p.Deposit) > 0 {
		return nil, ErrArithmeticUnderflow
	}

	return new(uint256.Int).Sub(p.Deposit, amount), nil
}
