package domain

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

func TestPosition_AfterBorrow(t *testing.T) {
	tests := []struct {
		name    string
		debt    *uint256.Int
		amount  *uint256.Int
		want    uint64
		wantErr error
	}{
		{
			name:   "adds to existing debt",
			debt:   uint256.NewInt(100),
			amount: uint256.NewInt(50),
			want:   150,
		},
		{
			name:   "borrow from zero",
			debt:   uint256.NewInt(0),
			amount: uint256.NewInt(1),
			want:   1,
		},
		{
			name:    "overflow rejected",
			debt:    new(uint256.Int).SetAllOne(),
			amount:  uint256.NewInt(1),
			wantErr: ErrArithmeticOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPosition("acct-1")
			p.Debt = tt.debt

			got, err := p.AfterBorrow(tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Uint64() != tt.want {
				t.Errorf("got %s, want %d", got.Dec(), tt.want)
			}
		})
	}
}

func TestPosition_AfterRepay(t *testing.T) {
	p := NewPosition("acct-1")
	p.Debt = uint256.NewInt(100)

	got, err := p.AfterRepay(uint256.NewInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("full repay left debt %s", got.Dec())
	}

	_, err = p.AfterRepay(uint256.NewInt(101))
	if !errors.Is(err, ErrArithmeticUnderflow) {
		t.Errorf("expected ErrArithmeticUnderflow, got %v", err)
	}
}

func TestPosition_AfterWithdraw(t *testing.T) {
	p := NewPosition("acct-1")
	p.Deposit = uint256.NewInt(40)

	got, err := p.AfterWithdraw(uint256.NewInt(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Uint64() != 25 {
		t.Errorf("got %s, want 25", got.Dec())
	}

	_, err = p.AfterWithdraw(uint256.NewInt(41))
	if !errors.Is(err, ErrArithmeticUnderflow) {
		t.Errorf("expected ErrArithmeticUnderflow, got %v", err)
	}
}

func TestPosition_IsZero(t *testing.T) {
	p := NewPosition("acct-1")
	if !p.IsZero() {
		t.Error("fresh position should be zero")
	}

	p.Deposit = uint256.NewInt(1)
	if p.IsZero() {
		t.Error("position with deposit should not be zero")
	}
}
