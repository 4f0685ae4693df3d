package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/usecase"
)

// LiquidationService is the surface of the liquidation use case the
// handler needs.
type LiquidationService interface {
	Liquidate(ctx context.Context, input usecase.LiquidateInput) (*usecase.LiquidationResult, error)
	ListAudit(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error)
}

// LiquidationHandler handles liquidation HTTP requests.
type LiquidationHandler struct {
	liquidationUC LiquidationService
	retrier       usecase.Retrier
	metrics       *metrics.Metrics
}

// NewLiquidationHandler creates a new LiquidationHandler.
func NewLiquidationHandler(liquidationUC LiquidationService, retrier usecase.Retrier, m *metrics.Metrics) *LiquidationHandler {
	return &LiquidationHandler{
		liquidationUC: liquidationUC,
		retrier:       retrier,
		metrics:       m,
	}
}

// Liquidate writes off both balances of an under-collateralized position.
func (h *LiquidationHandler) Liquidate(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	caller, ok := middleware.GetCallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "")
		return
	}

	input := usecase.LiquidateInput{
		AccountID: accountID,
		CallerID:  caller.ID,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}

	var result *usecase.LiquidationResult
	retryErr := h.retrier.Retry(r.Context(), func() error {
		var opErr error
		result, opErr = h.liquidationUC.Liquidate(r.Context(), input)
		return opErr
	})
	if retryErr != nil {
		h.metrics.LiquidationsTotal.WithLabelValues(errorType(retryErr)).Inc()
		status := mapDomainError(retryErr)
		writeError(w, status, "failed to liquidate", retryErr.Error())
		return
	}

	h.metrics.LiquidationsTotal.WithLabelValues("applied").Inc()
	if !result.DebtWrittenOff.IsZero() {
		h.metrics.DebtWrittenOff.Inc()
	}
	if !result.DepositWrittenOff.IsZero() {
		h.metrics.CollateralWrittenOff.Inc()
	}

	writeJSON(w, http.StatusOK, dto.LiquidationFromUseCase(result))
}

// ListAudit returns the audit trail of privileged calls against an account.
func (h *LiquidationHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	logs, err := h.liquidationUC.ListAudit(r.Context(), accountID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit logs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditLogsFromDomain(logs))
}
