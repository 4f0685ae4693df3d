package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// PositionUseCase runs the four balance-changing operations of the
// lending engine: deposit, borrow, repay, withdraw.
//
// Every operation follows the same shape: lock the position row, read one
// price snapshot if the solvency gate needs it, check the invariant
// against the post-mutation candidate balances, write the new balances and
// the outbox event, ask the asset gateway to move funds, then commit. A
// gateway failure rolls the whole transaction back, so no partial ledger
// state is ever visible.
type PositionUseCase struct {
	txManager    TransactionManager
	positionRepo PositionRepository
	outboxRepo   OutboxRepository
	oracle       PriceOracle
	gateway      AssetGateway
	idGen        IDGenerator
	pair         domain.Pair
}

// NewPositionUseCase creates a new PositionUseCase.
func NewPositionUseCase(
	txManager TransactionManager,
	positionRepo PositionRepository,
	outboxRepo OutboxRepository,
	oracle PriceOracle,
	gateway AssetGateway,
	idGen IDGenerator,
	pair domain.Pair,
) *PositionUseCase {
	return &PositionUseCase{
		txManager:    txManager,
		positionRepo: positionRepo,
		outboxRepo:   outboxRepo,
		oracle:       oracle,
		gateway:      gateway,
		idGen:        idGen,
		pair:         pair,
	}
}

// MutateInput identifies the account and amount of a balance change.
type MutateInput struct {
	AccountID string
	Amount    *uint256.Int
}

func (in MutateInput) validate() error {
	if in.AccountID == "" {
		return fmt.Errorf("%w: account id is required", domain.ErrInvalidAmount)
	}

	if in.Amount == nil {
		return domain.ErrInvalidAmount
	}

	return nil
}

// Deposit credits collateral to the account and pulls the same amount
// into engine custody. Zero deposits are accepted as a no-op equivalent.
func (uc *PositionUseCase) Deposit(ctx context.Context, input MutateInput) (*domain.Position, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pos, err := uc.positionRepo.GetForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	newDeposit, err := pos.AfterDeposit(input.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.commitBalances(ctx, tx, pos, newDeposit, pos.Debt, now, domain.EventTypePositionDeposited, uc.pair.CollateralAsset, input.Amount); err != nil {
		return nil, err
	}

	if err := uc.gateway.TransferIn(ctx, input.AccountID, uc.pair.CollateralAsset, input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.updated(pos, newDeposit, pos.Debt, now), nil
}

// Borrow increases the account's debt and pays the borrowed amount out,
// provided the post-borrow debt is still supported by the deposit at the
// current price.
func (uc *PositionUseCase) Borrow(ctx context.Context, input MutateInput) (*domain.Position, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pos, err := uc.positionRepo.GetForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	newDebt, err := pos.AfterBorrow(input.Amount)
	if err != nil {
		return nil, err
	}

	quote, err := uc.latestQuote(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := uc.pair.IsCollateralized(newDebt, pos.Deposit, quote)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUndercollateralized
	}

	now := time.Now().UTC()
	if err := uc.commitBalances(ctx, tx, pos, pos.Deposit, newDebt, now, domain.EventTypePositionBorrowed, uc.pair.DebtAsset, input.Amount); err != nil {
		return nil, err
	}

	if err := uc.gateway.TransferOut(ctx, input.AccountID, uc.pair.DebtAsset, input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.updated(pos, pos.Deposit, newDebt, now), nil
}

// Repay decreases the account's debt and pulls the repaid amount into
// engine custody. Repaying more than the outstanding debt is rejected.
func (uc *PositionUseCase) Repay(ctx context.Context, input MutateInput) (*domain.Position, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pos, err := uc.positionRepo.GetForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	newDebt, err := pos.AfterRepay(input.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.commitBalances(ctx, tx, pos, pos.Deposit, newDebt, now, domain.EventTypePositionRepaid, uc.pair.DebtAsset, input.Amount); err != nil {
		return nil, err
	}

	if err := uc.gateway.TransferIn(ctx, input.AccountID, uc.pair.DebtAsset, input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.updated(pos, pos.Deposit, newDebt, now), nil
}

// Withdraw debits collateral and pays it out, provided the remaining
// deposit still supports the outstanding debt at the current price.
func (uc *PositionUseCase) Withdraw(ctx context.Context, input MutateInput) (*domain.Position, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	pos, err := uc.positionRepo.GetForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	newDeposit, err := pos.AfterWithdraw(input.Amount)
	if err != nil {
		return nil, err
	}

	quote, err := uc.latestQuote(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := uc.pair.IsCollateralized(pos.Debt, newDeposit, quote)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUndercollateralized
	}

	now := time.Now().UTC()
	if err := uc.commitBalances(ctx, tx, pos, newDeposit, pos.Debt, now, domain.EventTypePositionWithdrawn, uc.pair.CollateralAsset, input.Amount); err != nil {
		return nil, err
	}

	if err := uc.gateway.TransferOut(ctx, input.AccountID, uc.pair.CollateralAsset, input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return uc.updated(pos, newDeposit, pos.Debt, now), nil
}

// PositionDetail is a position together with its price-derived health data.
type PositionDetail struct {
	Position          *domain.Position
	Quote             domain.Quote
	BorrowCapacity    *uint256.Int
	MinimumCollateral *uint256.Int
	Collateralized    bool
}

// GetPosition returns the account's position and its health at the
// current price.
func (uc *PositionUseCase) GetPosition(ctx context.Context, accountID string) (*PositionDetail, error) {
	pos, err := uc.positionRepo.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	quote, err := uc.latestQuote(ctx)
	if err != nil {
		return nil, err
	}

	capacity, err := uc.pair.CollateralToDebt(pos.Deposit, quote)
	if err != nil {
		return nil, err
	}

	minCollateral, err := uc.pair.MinimumCollateral(pos.Debt, quote)
	if err != nil {
		return nil, err
	}

	healthy, err := uc.pair.IsCollateralized(pos.Debt, pos.Deposit, quote)
	if err != nil {
		return nil, err
	}

	return &PositionDetail{
		Position:          pos,
		Quote:             quote,
		BorrowCapacity:    capacity,
		MinimumCollateral: minCollateral,
		Collateralized:    healthy,
	}, nil
}

// ListPositions returns a page of positions ordered by account.
func (uc *PositionUseCase) ListPositions(ctx context.Context, limit, offset int) ([]*domain.Position, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.positionRepo.List(ctx, limit, offset)
}

// LatestQuote exposes the engine's view of the oracle price.
func (uc *PositionUseCase) LatestQuote(ctx context.Context) (domain.Quote, error) {
	return uc.latestQuote(ctx)
}

// Pair returns the market configuration the engine was initialized with.
func (uc *PositionUseCase) Pair() domain.Pair {
	return uc.pair
}

func (uc *PositionUseCase) latestQuote(ctx context.Context) (domain.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultOracleTimeout)
	defer cancel()

	quote, err := uc.oracle.LatestQuote(ctx)
	if err != nil {
		return domain.Quote{}, err
	}

	if err := quote.Validate(); err != nil {
		return domain.Quote{}, err
	}

	return quote, nil
}

// commitBalances writes the candidate balances and the matching outbox
// event inside tx. Nothing is visible until tx commits.
func (uc *PositionUseCase) commitBalances(
	ctx context.Context,
	tx Transaction,
	pos *domain.Position,
	deposit, debt *uint256.Int,
	now time.Time,
	eventType, asset string,
	amount *uint256.Int,
) error {
	if err := uc.positionRepo.UpdateBalances(ctx, tx, pos.AccountID, deposit, debt, now); err != nil {
		return err
	}

	payload := domain.PositionMutatedEvent{
		AccountID: pos.AccountID,
		Asset:     asset,
		Amount:    amount.Dec(),
		Deposit:   deposit.Dec(),
		Debt:      debt.Dec(),
		EventAt:   now.Format(time.RFC3339Nano),
	}

	return uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   pos.AccountID,
		AggregateType: domain.AggregateTypePosition,
		EventType:     eventType,
		Payload: map[string]any{
			"account_id":      payload.AccountID,
			"asset":           payload.Asset,
			"amount":          payload.Amount,
			"deposit_balance": payload.Deposit,
			"debt_balance":    payload.Debt,
			"event_at":        payload.EventAt,
		},
		CreatedAt: now,
	})
}

func (uc *PositionUseCase) updated(pos *domain.Position, deposit, debt *uint256.Int, now time.Time) *domain.Position {
	return &domain.Position{
		AccountID: pos.AccountID,
		Deposit:   deposit,
		Debt:      debt,
		Version:   pos.Version + 1,
		CreatedAt: pos.CreatedAt,
		UpdatedAt: now,
	}
}
