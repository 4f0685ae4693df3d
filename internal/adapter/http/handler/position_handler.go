package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/infrastructure/metrics"
	"github.com/iho/vaultledger/internal/usecase"
)

// PositionService is the surface of the position use case the handler needs.
type PositionService interface {
	GetPosition(ctx context.Context, accountID string) (*usecase.PositionDetail, error)
	ListPositions(ctx context.Context, limit, offset int) ([]*domain.Position, error)
	Deposit(ctx context.Context, input usecase.MutateInput) (*domain.Position, error)
	Borrow(ctx context.Context, input usecase.MutateInput) (*domain.Position, error)
	Repay(ctx context.Context, input usecase.MutateInput) (*domain.Position, error)
	Withdraw(ctx context.Context, input usecase.MutateInput) (*domain.Position, error)
}

// PositionHandler handles position-related HTTP requests.
type PositionHandler struct {
	positionUC PositionService
	retrier    usecase.Retrier
	metrics    *metrics.Metrics
}

// NewPositionHandler creates a new PositionHandler.
func NewPositionHandler(positionUC PositionService, retrier usecase.Retrier, m *metrics.Metrics) *PositionHandler {
	return &PositionHandler{
		positionUC: positionUC,
		retrier:    retrier,
		metrics:    m,
	}
}

// Get returns the account's position and its current health.
func (h *PositionHandler) Get(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	detail, err := h.positionUC.GetPosition(r.Context(), accountID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get position", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.PositionDetailFromUseCase(detail))
}

// List lists positions.
func (h *PositionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	positions, err := h.positionUC.ListPositions(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list positions", err.Error())
		return
	}

	result := make([]*dto.PositionResponse, len(positions))
	for i, p := range positions {
		result[i] = dto.PositionFromDomain(p)
	}
	writeJSON(w, http.StatusOK, result)
}

// Deposit adds collateral to the account's position.
func (h *PositionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "deposit", h.positionUC.Deposit)
}

// Borrow draws debt against the account's collateral.
func (h *PositionHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "borrow", h.positionUC.Borrow)
}

// Repay pays down the account's debt.
func (h *PositionHandler) Repay(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "repay", h.positionUC.Repay)
}

// Withdraw removes collateral from the account's position.
func (h *PositionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "withdraw", h.positionUC.Withdraw)
}

func (h *PositionHandler) mutate(w http.ResponseWriter, r *http.Request, operation string, fn func(ctx context.Context, input usecase.MutateInput) (*domain.Position, error)) {
	accountID := chi.URLParam(r, "account")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	var req dto.MutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(accountID)
	if err != nil {
		h.metrics.OperationsTotal.WithLabelValues(operation, "rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	start := time.Now()

	var pos *domain.Position
	retryErr := h.retrier.Retry(r.Context(), func() error {
		var opErr error
		pos, opErr = fn(r.Context(), input)
		return opErr
	})

	h.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if retryErr != nil {
		h.metrics.OperationsTotal.WithLabelValues(operation, "rejected").Inc()
		h.metrics.OperationErrors.WithLabelValues(operation, errorType(retryErr)).Inc()
		status := mapDomainError(retryErr)
		writeError(w, status, "failed to "+operation, retryErr.Error())
		return
	}

	h.metrics.OperationsTotal.WithLabelValues(operation, "applied").Inc()
	writeJSON(w, http.StatusOK, dto.PositionFromDomain(pos))
}
