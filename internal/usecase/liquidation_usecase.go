package usecase

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// LiquidationUseCase executes the privileged write-off of an
// under-collateralized position. No assets move: the seized collateral
// stays in engine custody and the bad debt is written off.
type LiquidationUseCase struct {
	txManager    TransactionManager
	positionRepo PositionRepository
	outboxRepo   OutboxRepository
	auditRepo    AuditRepository
	oracle       PriceOracle
	accessCtrl   AccessController
	idGen        IDGenerator
	pair         domain.Pair
}

// NewLiquidationUseCase creates a new LiquidationUseCase.
func NewLiquidationUseCase(
	txManager TransactionManager,
	positionRepo PositionRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	oracle PriceOracle,
	accessCtrl AccessController,
	idGen IDGenerator,
	pair domain.Pair,
) *LiquidationUseCase {
	return &LiquidationUseCase{
		txManager:    txManager,
		positionRepo: positionRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
		oracle:       oracle,
		accessCtrl:   accessCtrl,
		idGen:        idGen,
		pair:         pair,
	}
}

// LiquidateInput identifies the position to liquidate and the caller
// requesting it.
type LiquidateInput struct {
	AccountID string
	CallerID  string
	RequestID string
}

// LiquidationResult reports the balances written off.
type LiquidationResult struct {
	AccountID         string
	DepositWrittenOff *uint256.Int
	DebtWrittenOff    *uint256.Int
	Price             domain.Quote
	LiquidatedAt      time.Time
}

// Liquidate zeroes both balances of an under-collateralized position.
// Only the configured operator may call it; healthy positions are
// rejected with ErrNotUndercollateralized.
func (uc *LiquidationUseCase) Liquidate(ctx context.Context, input LiquidateInput) (*LiquidationResult, error) {
	authorized, err := uc.accessCtrl.IsAuthorizedOperator(ctx, input.CallerID)
	if err != nil {
		return nil, err
	}
	if !authorized {
		uc.audit(ctx, input, nil, domain.AuditStatusDenied, domain.ErrUnauthorized.Error())
		return nil, domain.ErrUnauthorized
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

	quote, err := uc.latestQuote(ctx)
	if err != nil {
		return nil, err
	}

	healthy, err := uc.pair.IsCollateralized(pos.Debt, pos.Deposit, quote)
	if err != nil {
		return nil, err
	}
	if healthy {
		uc.audit(ctx, input, pos, domain.AuditStatusDenied, domain.ErrNotUndercollateralized.Error())
		return nil, domain.ErrNotUndercollateralized
	}

	now := time.Now().UTC()

	zero := uint256.NewInt(0)
	if err := uc.positionRepo.UpdateBalances(ctx, tx, input.AccountID, zero, zero, now); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   input.AccountID,
		AggregateType: domain.AggregateTypePosition,
		EventType:     domain.EventTypePositionLiquidated,
		Payload: map[string]any{
			"account_id":          input.AccountID,
			"operator":            input.CallerID,
			"deposit_written_off": pos.Deposit.Dec(),
			"debt_written_off":    pos.Debt.Dec(),
			"price":               quote.Price.Dec(),
			"event_at":            now.Format(time.RFC3339Nano),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := uc.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		ID:        uc.idGen.Generate(),
		CallerID:  input.CallerID,
		Action:    domain.AuditActionLiquidate,
		AccountID: input.AccountID,
		RequestID: input.RequestID,
		BeforeState: domain.JSON{
			"deposit_balance": pos.Deposit.Dec(),
			"debt_balance":    pos.Debt.Dec(),
		},
		AfterState: domain.JSON{
			"deposit_balance": "0",
			"debt_balance":    "0",
		},
		Status:    domain.AuditStatusSuccess,
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &LiquidationResult{
		AccountID:         input.AccountID,
		DepositWrittenOff: pos.Deposit,
		DebtWrittenOff:    pos.Debt,
		Price:             quote,
		LiquidatedAt:      now,
	}, nil
}

// ListAudit returns the audit trail for an account, newest first.
func (uc *LiquidationUseCase) ListAudit(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return uc.auditRepo.ListByAccount(ctx, accountID, limit, offset)
}

func (uc *LiquidationUseCase) latestQuote(ctx context.Context) (domain.Quote, error) {
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

// audit records a rejected privileged call outside the ledger transaction.
// Audit write failures are swallowed: they must not mask the rejection.
func (uc *LiquidationUseCase) audit(ctx context.Context, input LiquidateInput, pos *domain.Position, status, reason string) {
	log := &domain.AuditLog{
		ID:           uc.idGen.Generate(),
		CallerID:     input.CallerID,
		Action:       domain.AuditActionLiquidate,
		AccountID:    input.AccountID,
		RequestID:    input.RequestID,
		Status:       status,
		ErrorMessage: reason,
		CreatedAt:    time.Now().UTC(),
	}

	if pos != nil {
		log.BeforeState = domain.JSON{
			"deposit_balance": pos.Deposit.Dec(),
			"debt_balance":    pos.Debt.Dec(),
		}
	}

	_ = uc.auditRepo.Create(ctx, log)
}
