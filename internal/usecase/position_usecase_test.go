package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
	"github.com/iho/vaultledger/internal/usecase/mocks"
)

var testPair = domain.Pair{
	CollateralAsset:    "WETH",
	DebtAsset:          "USDV",
	CollateralDecimals: 18,
	DebtDecimals:       18,
}

// e18 scales n into 18-decimal base units.
func e18(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(18)))
}

func unitPriceOracle() *mocks.MockPriceOracle {
	oracle := mocks.NewMockPriceOracle()
	oracle.LatestQuoteFunc = func(ctx context.Context) (domain.Quote, error) {
		return domain.Quote{Price: e18(1), Decimals: 18}, nil
	}
	return oracle
}

type positionFixture struct {
	uc      *usecase.PositionUseCase
	repo    *mocks.MockPositionRepository
	outbox  *mocks.MockOutboxRepository
	oracle  *mocks.MockPriceOracle
	gateway *mocks.MockAssetGateway
	txMgr   *mocks.MockTransactionManager
}

func newPositionFixture() *positionFixture {
	repo := mocks.NewMockPositionRepository()
	outbox := mocks.NewMockOutboxRepository()
	oracle := unitPriceOracle()
	gateway := mocks.NewMockAssetGateway()
	txMgr := mocks.NewMockTransactionManager()
	idGen := mocks.NewMockIDGenerator()

	return &positionFixture{
		uc:      usecase.NewPositionUseCase(txMgr, repo, outbox, oracle, gateway, idGen, testPair),
		repo:    repo,
		outbox:  outbox,
		oracle:  oracle,
		gateway: gateway,
		txMgr:   txMgr,
	}
}

func TestPositionUseCase_Deposit(t *testing.T) {
	f := newPositionFixture()

	pos, err := f.uc.Deposit(context.Background(), usecase.MutateInput{
		AccountID: "acct-1",
		Amount:    e18(2),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pos.Deposit.Cmp(e18(2)) != 0 {
		t.Errorf("deposit balance = %s, want %s", pos.Deposit.Dec(), e18(2).Dec())
	}

	if len(f.gateway.Inbound) != 1 {
		t.Fatalf("expected 1 inbound transfer, got %d", len(f.gateway.Inbound))
	}
	if f.gateway.Inbound[0].Asset != "WETH" {
		t.Errorf("deposit moved asset %s, want WETH", f.gateway.Inbound[0].Asset)
	}

	if len(f.outbox.Events) != 1 || f.outbox.Events[0].EventType != domain.EventTypePositionDeposited {
		t.Errorf("expected one position.deposited event, got %+v", f.outbox.Events)
	}

	if len(f.txMgr.Txs) != 1 || !f.txMgr.Txs[0].Committed {
		t.Error("expected transaction to be committed")
	}
}

func TestPositionUseCase_Deposit_ZeroAmountAccepted(t *testing.T) {
	f := newPositionFixture()

	pos, err := f.uc.Deposit(context.Background(), usecase.MutateInput{
		AccountID: "acct-1",
		Amount:    uint256.NewInt(0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.Deposit.IsZero() {
		t.Errorf("zero deposit changed balance to %s", pos.Deposit.Dec())
	}
}

func TestPositionUseCase_Deposit_TransferFailureRollsBack(t *testing.T) {
	f := newPositionFixture()
	f.gateway.TransferInFunc = func(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
		return errors.New("custody rejected")
	}

	_, err := f.uc.Deposit(context.Background(), usecase.MutateInput{
		AccountID: "acct-1",
		Amount:    e18(1),
	})
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	if f.txMgr.Txs[0].Committed {
		t.Error("transaction must not commit when the transfer fails")
	}
	if !f.txMgr.Txs[0].RolledBack {
		t.Error("transaction must roll back when the transfer fails")
	}
}

func TestPositionUseCase_Borrow(t *testing.T) {
	tests := []struct {
		name    string
		deposit *uint256.Int
		debt    *uint256.Int
		amount  *uint256.Int
		wantErr error
	}{
		{
			name:    "borrow within capacity",
			deposit: e18(1),
			debt:    uint256.NewInt(0),
			amount:  uint256.NewInt(600_000_000_000_000_000),
		},
		{
			name:    "borrow exactly at capacity",
			deposit: e18(1),
			debt:    uint256.NewInt(0),
			amount:  e18(1),
		},
		{
			name:    "borrow one unit above capacity",
			deposit: e18(1),
			debt:    uint256.NewInt(0),
			amount:  new(uint256.Int).Add(e18(1), uint256.NewInt(1)),
			wantErr: domain.ErrUndercollateralized,
		},
		{
			name:    "second borrow checked against combined debt",
			deposit: e18(1),
			debt:    uint256.NewInt(600_000_000_000_000_000),
			amount:  uint256.NewInt(500_000_000_000_000_000),
			wantErr: domain.ErrUndercollateralized,
		},
		{
			name:    "debt overflow rejected",
			deposit: e18(1),
			debt:    new(uint256.Int).SetAllOne(),
			amount:  uint256.NewInt(1),
			wantErr: domain.ErrArithmeticOverflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPositionFixture()
			f.repo.Seed(&domain.Position{AccountID: "acct-1", Deposit: tt.deposit, Debt: tt.debt})

			pos, err := f.uc.Borrow(context.Background(), usecase.MutateInput{
				AccountID: "acct-1",
				Amount:    tt.amount,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(f.gateway.Outbound) != 0 {
					t.Error("rejected borrow must not move assets")
				}
				if len(f.outbox.Events) != 0 {
					t.Error("rejected borrow must not emit events")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			wantDebt := new(uint256.Int).Add(tt.debt, tt.amount)
			if pos.Debt.Cmp(wantDebt) != 0 {
				t.Errorf("debt = %s, want %s", pos.Debt.Dec(), wantDebt.Dec())
			}

			if len(f.gateway.Outbound) != 1 || f.gateway.Outbound[0].Asset != "USDV" {
				t.Errorf("expected one outbound USDV transfer, got %+v", f.gateway.Outbound)
			}
		})
	}
}

func TestPositionUseCase_Borrow_OracleFailureAborts(t *testing.T) {
	f := newPositionFixture()
	f.repo.Seed(&domain.Position{AccountID: "acct-1", Deposit: e18(1), Debt: uint256.NewInt(0)})
	f.oracle.LatestQuoteFunc = func(ctx context.Context) (domain.Quote, error) {
		return domain.Quote{}, context.DeadlineExceeded
	}

	_, err := f.uc.Borrow(context.Background(), usecase.MutateInput{
		AccountID: "acct-1",
		Amount:    uint256.NewInt(1),
	})
	if err == nil {
		t.Fatal("expected error from stalled oracle")
	}

	if len(f.gateway.Outbound) != 0 {
		t.Error("no assets may move when the oracle fails")
	}
}

func TestPositionUseCase_Borrow_ZeroPriceFailsClosed(t *testing.T) {
	f := newPositionFixture()
	f.repo.Seed(&domain.Position{AccountID: "acct-1", Deposit: e18(1), Debt: uint256.NewInt(0)})
	f.oracle.LatestQuoteFunc = func(ctx context.Context) (domain.Quote, error) {
		return domain.Quote{Price: uint256.NewInt(0), Decimals: 18}, nil
	}

	_, err := f.uc.Borrow(context.Background(), usecase.MutateInput{
		AccountID: "acct-1",
		Amount:    uint256.NewInt(1),
	})
	if !errors.Is(err, domain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestPositionUseCase_Repay(t *testing.T) {
	tests := []struct {
		name    string
		debt    *uint256.Int
		amount  *uint256.Int
		wantErr error
	}{
		{
			name:   "partial repay",
			debt:   e18(2),
			amount: e18(1),
		},
		{
			name:   "full repay",
			debt:   e18(2),
			amount: e18(2),
		},
		{
			name:    "repay above debt",
			debt:    e18(2),
			amount:  new(uint256.Int).Add(e18(2), uint256.NewInt(1)),
			wantErr: domain.ErrArithmeticUnderflow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPositionFixture()
			f.repo.Seed(&domain.Position{AccountID: "acct-1", Deposit: e18(10), Debt: tt.debt})

			pos, err := f.uc.Repay(context.Background(), usecase.MutateInput{
				AccountID: "acct-1",
				Amount:    tt.amount,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			wantDebt := new(uint256.Int).Sub(tt.debt, tt.amount)
			if pos.Debt.Cmp(wantDebt) != 0 {
				t.Errorf("debt = %s, want %s", pos.Debt.Dec(), wantDebt.Dec())
			}

			if len(f.gateway.Inbound) != 1 || f.gateway.Inbound[0].Asset != "USDV" {
				t.Errorf("expected one inbound USDV transfer, got %+v", f.gateway.Inbound)
			}
		})
	}
}

func TestPositionUseCase_Withdraw(t *testing.T) {
	tests := []struct {
		name    string
		deposit *uint256.Int
		debt    *uint256.Int
		amount  *uint256.Int
		wantErr error
	}{
		{
			name:    "withdraw free collateral",
			deposit: e18(2),
			debt:    e18(1),
			amount:  e18(1),
		},
		{
			name:    "withdraw everything with no debt",
			deposit: e18(2),
			debt:    uint256.NewInt(0),
			amount:  e18(2),
		},
		{
			name:    "withdraw above balance",
			deposit: e18(2),
			debt:    uint256.NewInt(0),
			amount:  new(uint256.Int).Add(e18(2), uint256.NewInt(1)),
			wantErr: domain.ErrArithmeticUnderflow,
		},
		{
			name:    "withdraw into undercollateralization",
			deposit: e18(2),
			debt:    e18(1),
			amount:  new(uint256.Int).Add(e18(1), uint256.NewInt(1)),
			wantErr: domain.ErrUndercollateralized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPositionFixture()
			f.repo.Seed(&domain.Position{AccountID: "acct-1", Deposit: tt.deposit, Debt: tt.debt})

			pos, err := f.uc.Withdraw(context.Background(), usecase.MutateInput{
				AccountID: "acct-1",
				Amount:    tt.amount,
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if len(f.gateway.Outbound) != 0 {
					t.Error("rejected withdraw must not move assets")
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			wantDeposit := new(uint256.Int).Sub(tt.deposit, tt.amount)
			if pos.Deposit.Cmp(wantDeposit) != 0 {
				t.Errorf("deposit = %s, want %s", pos.Deposit.Dec(), wantDeposit.Dec())
			}
		})
	}
}

func TestPositionUseCase_GetPosition(t *testing.T) {
	f := newPositionFixture()
	f.repo.Seed(&domain.Position{
		AccountID: "acct-1",
		Deposit:   e18(1),
		Debt:      uint256.NewInt(600_000_000_000_000_000),
	})

	detail, err := f.uc.GetPosition(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !detail.Collateralized {
		t.Error("position should be collateralized at price 1.0")
	}
	if detail.BorrowCapacity.Cmp(e18(1)) != 0 {
		t.Errorf("borrow capacity = %s, want %s", detail.BorrowCapacity.Dec(), e18(1).Dec())
	}
	if detail.MinimumCollateral.Cmp(uint256.NewInt(600_000_000_000_000_000)) != 0 {
		t.Errorf("minimum collateral = %s", detail.MinimumCollateral.Dec())
	}
}

func TestPositionUseCase_GetPosition_UnseenAccountIsZero(t *testing.T) {
	f := newPositionFixture()

	detail, err := f.uc.GetPosition(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !detail.Position.IsZero() {
		t.Error("unseen account should hold the zero position")
	}
	if !detail.MinimumCollateral.IsZero() {
		t.Errorf("minimum collateral for zero debt = %s, want 0", detail.MinimumCollateral.Dec())
	}
	if !detail.Collateralized {
		t.Error("zero position is collateralized by definition")
	}
}

// TestPositionUseCase_InvariantPreserved walks the concrete scenario from
// the engine's acceptance checklist and asserts the solvency invariant
// after every successful step.
func TestPositionUseCase_InvariantPreserved(t *testing.T) {
	f := newPositionFixture()
	ctx := context.Background()

	assertHealthy := func(step string) {
		t.Helper()
		detail, err := f.uc.GetPosition(ctx, "acct-1")
		if err != nil {
			t.Fatalf("%s: %v", step, err)
		}
		if !detail.Collateralized {
			t.Fatalf("%s left the position undercollateralized", step)
		}
	}

	if _, err := f.uc.Deposit(ctx, usecase.MutateInput{AccountID: "acct-1", Amount: e18(1)}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	assertHealthy("deposit")

	if _, err := f.uc.Borrow(ctx, usecase.MutateInput{AccountID: "acct-1", Amount: uint256.NewInt(600_000_000_000_000_000)}); err != nil {
		t.Fatalf("borrow: %v", err)
	}
	assertHealthy("borrow")

	_, err := f.uc.Borrow(ctx, usecase.MutateInput{AccountID: "acct-1", Amount: uint256.NewInt(500_000_000_000_000_000)})
	if !errors.Is(err, domain.ErrUndercollateralized) {
		t.Fatalf("second borrow: expected ErrUndercollateralized, got %v", err)
	}
	assertHealthy("rejected borrow")

	if _, err := f.uc.Repay(ctx, usecase.MutateInput{AccountID: "acct-1", Amount: uint256.NewInt(600_000_000_000_000_000)}); err != nil {
		t.Fatalf("repay: %v", err)
	}
	assertHealthy("repay")

	if _, err := f.uc.Withdraw(ctx, usecase.MutateInput{AccountID: "acct-1", Amount: e18(1)}); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	assertHealthy("withdraw")

	final := f.repo.Get("acct-1")
	if !final.IsZero() {
		t.Errorf("full unwind should return to the zero position, got deposit=%s debt=%s",
			final.Deposit.Dec(), final.Debt.Dec())
	}
}
