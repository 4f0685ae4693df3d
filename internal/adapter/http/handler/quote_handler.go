package handler

import (
	"context"
	"net/http"

	"github.com/iho/vaultledger/internal/adapter/http/dto"
	"github.com/iho/vaultledger/internal/domain"
)

// QuoteService reports the engine's market and its current price.
type QuoteService interface {
	LatestQuote(ctx context.Context) (domain.Quote, error)
	Pair() domain.Pair
}

// QuoteHandler exposes the engine's view of the oracle price.
type QuoteHandler struct {
	positionUC QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(positionUC QuoteService) *QuoteHandler {
	return &QuoteHandler{positionUC: positionUC}
}

// Get returns the current quote and the market it prices.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	quote, err := h.positionUC.LatestQuote(r.Context())
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to fetch quote", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pair":  dto.PairFromDomain(h.positionUC.Pair()),
		"quote": dto.QuoteFromDomain(quote),
	})
}
