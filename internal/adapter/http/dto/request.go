package dto

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// MutationRequest carries the amount for a deposit, borrow, repay or
// withdraw call. Amounts travel as decimal strings so 256-bit values
// survive JSON.
type MutationRequest struct {
	Amount string `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *MutationRequest) ToUseCaseInput(accountID string) (usecase.MutateInput, error) {
	amount, err := ParseAmount(r.Amount)
	if err != nil {
		return usecase.MutateInput{}, err
	}
	return usecase.MutateInput{AccountID: accountID, Amount: amount}, nil
}

// ParseAmount parses an unsigned decimal string. Signs, fractions and
// separators are rejected.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: amount is required", domain.ErrInvalidAmount)
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, s)
	}
	return amount, nil
}
