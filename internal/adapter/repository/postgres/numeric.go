package postgres

import (
	"fmt"
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5/pgtype"
)

// Balances are stored as NUMERIC(78,0): wide enough for any 256-bit
// amount, with no fractional digits.

func uint256ToNumeric(v *uint256.Int) pgtype.Numeric {
	return pgtype.Numeric{Int: v.ToBig(), Valid: true}
}

func numericToUint256(n pgtype.Numeric) (*uint256.Int, error) {
	if !n.Valid || n.Int == nil {
		return uint256.NewInt(0), nil
	}

	if n.Int.Sign() < 0 {
		return nil, fmt.Errorf("negative balance %s in storage", n.Int)
	}

	b := new(big.Int).Set(n.Int)
	if n.Exp > 0 {
		b.Mul(b, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n.Exp)), nil))
	} else if n.Exp < 0 {
		return nil, fmt.Errorf("fractional balance in storage (exp %d)", n.Exp)
	}

	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, fmt.Errorf("balance %s exceeds 256 bits", b)
	}

	return v, nil
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
