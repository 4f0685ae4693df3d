package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

type liquidationServiceStub struct {
	liquidateFn func(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error)
	listAuditFn func(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error)
}

func (s *liquidationServiceStub) Liquidate(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error) {
	return s.liquidateFn(ctx, input)
}

func (s *liquidationServiceStub) ListAudit(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error) {
	return s.listAuditFn(ctx, accountID, limit, offset)
}

func withCaller(r *http.Request, caller *domain.Caller) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.CallerContextKey, caller))
}

func TestLiquidationHandler_Liquidate_Success(t *testing.T) {
	var captured usecase.LiquidateInput
	h := NewLiquidationHandler(&liquidationServiceStub{
		liquidateFn: func(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error) {
			captured = input
			return &usecase.LiquidationResult{
				AccountID:         input.AccountID,
				DepositWrittenOff: uint256.NewInt(1000),
				DebtWrittenOff:    uint256.NewInt(700),
				Price:             domain.Quote{Price: uint256.NewInt(200000000), Decimals: 8},
				LiquidatedAt:      time.Now(),
			}, nil
		},
	}, passthroughRetrier{}, newTestMetrics())

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/liquidations/acc-1", nil), "account", "acc-1")
	req = withCaller(req, &domain.Caller{ID: "ops-1", Role: domain.RoleOperator})
	rec := httptest.NewRecorder()

	h.Liquidate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.AccountID != "acc-1" || captured.CallerID != "ops-1" {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.LiquidationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.DebtWrittenOff != "700" || resp.DepositWrittenOff != "1000" {
		t.Fatalf("unexpected write-off: %+v", resp)
	}
}

func TestLiquidationHandler_Liquidate_HealthyPosition(t *testing.T) {
	h := NewLiquidationHandler(&liquidationServiceStub{
		liquidateFn: func(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error) {
			return nil, domain.ErrNotUndercollateralized
		},
	}, passthroughRetrier{}, newTestMetrics())

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/liquidations/acc-1", nil), "account", "acc-1")
	req = withCaller(req, &domain.Caller{ID: "ops-1", Role: domain.RoleOperator})
	rec := httptest.NewRecorder()

	h.Liquidate(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestLiquidationHandler_Liquidate_Unauthenticated(t *testing.T) {
	h := NewLiquidationHandler(&liquidationServiceStub{
		liquidateFn: func(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error) {
			t.Fatal("Liquidate should not be called")
			return nil, nil
		},
	}, passthroughRetrier{}, newTestMetrics())

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/liquidations/acc-1", nil), "account", "acc-1")
	rec := httptest.NewRecorder()

	h.Liquidate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLiquidationHandler_ListAudit(t *testing.T) {
	h := NewLiquidationHandler(&liquidationServiceStub{
		listAuditFn: func(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error) {
			return []*domain.AuditLog{
				{ID: "01A", CallerID: "ops-1", Action: domain.AuditActionLiquidate, AccountID: accountID, Status: domain.AuditStatusSuccess},
			}, nil
		},
	}, passthroughRetrier{}, newTestMetrics())

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/liquidations/acc-1/audit", nil), "account", "acc-1")
	rec := httptest.NewRecorder()

	h.ListAudit(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []*dto.AuditLogResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Action != domain.AuditActionLiquidate {
		t.Fatalf("unexpected audit logs: %+v", resp)
	}
}
