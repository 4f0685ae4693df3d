package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// PositionRepository implements usecase.PositionRepository.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new PositionRepository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

const selectPosition = `
SELECT account_id, deposit_balance, debt_balance, version, created_at, updated_at
FROM positions
WHERE account_id = $1`

// GetByAccount retrieves a position. Unseen accounts yield the zero
// position, never an error.
func (r *PositionRepository) GetByAccount(ctx context.Context, accountID string) (*domain.Position, error) {
	pos, err := scanPosition(r.pool.QueryRow(ctx, selectPosition, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewPosition(accountID), nil
		}

		return nil, err
	}

	return pos, nil
}

// GetForUpdate locks the position row for the duration of tx, creating
// the zero row on first touch so there is always a row to lock.
func (r *PositionRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Position, error) {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO positions (account_id, deposit_balance, debt_balance, version, created_at, updated_at)
		VALUES ($1, 0, 0, 0, now(), now())
		ON CONFLICT (account_id) DO NOTHING`, accountID)
	if err != nil {
		return nil, err
	}

	return scanPosition(pgxTx.QueryRow(ctx, selectPosition+" FOR UPDATE", accountID))
}

// UpdateBalances writes both balances and bumps the row version.
func (r *PositionRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, accountID string, deposit, debt *uint256.Int, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, `
		UPDATE positions
		SET deposit_balance = $2, debt_balance = $3, version = version + 1, updated_at = $4
		WHERE account_id = $1`,
		accountID, uint256ToNumeric(deposit), uint256ToNumeric(debt), timeToPgTimestamptz(updatedAt))

	return err
}

// List returns positions ordered by account identifier.
func (r *PositionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Position, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, deposit_balance, debt_balance, version, created_at, updated_at
		FROM positions
		ORDER BY account_id
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	return positions, rows.Err()
}

func scanPosition(row pgx.Row) (*domain.Position, error) {
	var (
		pos       domain.Position
		deposit   pgtype.Numeric
		debt      pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&pos.AccountID, &deposit, &debt, &pos.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error

	pos.Deposit, err = numericToUint256(deposit)
	if err != nil {
		return nil, err
	}

	pos.Debt, err = numericToUint256(debt)
	if err != nil {
		return nil, err
	}

	pos.CreatedAt = createdAt.Time
	pos.UpdatedAt = updatedAt.Time

	return &pos, nil
}
