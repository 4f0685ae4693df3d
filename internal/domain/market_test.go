package domain

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
)

var testPair = Pair{
	CollateralAsset:    "WETH",
	DebtAsset:          "USDV",
	CollateralDecimals: 18,
	DebtDecimals:       18,
}

// unitQuote is 1.0 debt per collateral at 18 price decimals.
func unitQuote() Quote {
	return Quote{Price: pow10(18), Decimals: 18}
}

func TestPair_CollateralToDebt(t *testing.T) {
	one := pow10(18)

	tests := []struct {
		name       string
		collateral *uint256.Int
		quote      Quote
		want       *uint256.Int
		wantErr    error
	}{
		{
			name:       "price 1.0 maps one to one",
			collateral: one,
			quote:      unitQuote(),
			want:       one,
		},
		{
			name:       "price 0.5 doubles capacity",
			collateral: one,
			quote:      Quote{Price: new(uint256.Int).Div(pow10(18), uint256.NewInt(2)), Decimals: 18},
			want:       new(uint256.Int).Mul(one, uint256.NewInt(2)),
		},
		{
			name:       "zero price fails closed",
			collateral: one,
			quote:      Quote{Price: uint256.NewInt(0), Decimals: 18},
			wantErr:    ErrInvalidPrice,
		},
		{
			name:       "nil price fails closed",
			collateral: one,
			quote:      Quote{Decimals: 18},
			wantErr:    ErrInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testPair.CollateralToDebt(tt.collateral, tt.quote)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cmp(tt.want) != 0 {
				t.Errorf("got %s, want %s", got.Dec(), tt.want.Dec())
			}
		})
	}
}

func TestPair_ConversionConsistency(t *testing.T) {
	// collateralToDebt(debtToCollateral(d)) <= d: rounding never creates
	// free borrow capacity.
	quotes := []Quote{
		unitQuote(),
		{Price: uint256.NewInt(333_333_333), Decimals: 9},
		{Price: uint256.NewInt(17), Decimals: 2},
		{Price: uint256.NewInt(1_250_000), Decimals: 6},
	}

	debts := []*uint256.Int{
		uint256.NewInt(1),
		uint256.NewInt(999),
		uint256.NewInt(600_000_000_000_000_000),
		pow10(24),
	}

	for _, q := range quotes {
		for _, d := range debts {
			collateral, err := testPair.DebtToCollateral(d, q)
			if err != nil {
				t.Fatalf("DebtToCollateral(%s): %v", d.Dec(), err)
			}

			back, err := testPair.CollateralToDebt(collateral, q)
			if err != nil {
				t.Fatalf("CollateralToDebt(%s): %v", collateral.Dec(), err)
			}

			if back.Cmp(d) > 0 {
				t.Errorf("price %s/1e%d: debt %s -> collateral %s -> debt %s (over-credits)",
					q.Price.Dec(), q.Decimals, d.Dec(), collateral.Dec(), back.Dec())
			}
		}
	}
}

func TestPair_IsCollateralized(t *testing.T) {
	one := pow10(18)

	tests := []struct {
		name       string
		debt       *uint256.Int
		collateral *uint256.Int
		quote      Quote
		want       bool
	}{
		{
			name:       "zero debt is always collateralized",
			debt:       uint256.NewInt(0),
			collateral: uint256.NewInt(0),
			quote:      Quote{Price: uint256.NewInt(0), Decimals: 18}, // price not consulted
			want:       true,
		},
		{
			name:       "debt equal to capacity",
			debt:       one,
			collateral: one,
			quote:      unitQuote(),
			want:       true,
		},
		{
			name:       "debt one above capacity",
			debt:       new(uint256.Int).Add(one, uint256.NewInt(1)),
			collateral: one,
			quote:      unitQuote(),
			want:       false,
		},
		{
			name:       "price doubling undercollateralizes",
			debt:       uint256.NewInt(600_000_000_000_000_000),
			collateral: one,
			quote:      Quote{Price: new(uint256.Int).Mul(pow10(18), uint256.NewInt(2)), Decimals: 18},
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testPair.IsCollateralized(tt.debt, tt.collateral, tt.quote)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPair_MinimumCollateral(t *testing.T) {
	zero, err := testPair.MinimumCollateral(uint256.NewInt(0), Quote{Price: uint256.NewInt(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !zero.IsZero() {
		t.Errorf("minimum collateral for zero debt = %s, want 0", zero.Dec())
	}

	debt := uint256.NewInt(600_000_000_000_000_000)
	min, err := testPair.MinimumCollateral(debt, unitQuote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if min.Cmp(debt) != 0 {
		t.Errorf("minimum collateral at price 1.0 = %s, want %s", min.Dec(), debt.Dec())
	}
}

func TestPair_CrossPrecisionRebasing(t *testing.T) {
	// Collateral with 18 decimals, debt with 6 decimals, price 1.0 in 1e8.
	pair := Pair{
		CollateralAsset:    "WETH",
		DebtAsset:          "USDT",
		CollateralDecimals: 18,
		DebtDecimals:       6,
	}
	q := Quote{Price: pow10(8), Decimals: 8}

	// 1.0 collateral: intermediate is 1e18, rebased 6->18 keeps magnitude.
	capacity, err := pair.CollateralToDebt(pow10(18), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The required-collateral direction must never over-credit relative to
	// the capacity direction.
	required, err := pair.DebtToCollateral(capacity, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	back, err := pair.CollateralToDebt(required, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Cmp(capacity) > 0 {
		t.Errorf("rebasing over-credits: capacity %s, round trip %s", capacity.Dec(), back.Dec())
	}
}
