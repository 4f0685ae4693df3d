package dto

import (
	"time"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// PositionResponse represents a position in API responses.
type PositionResponse struct {
	AccountID string    `json:"account_id"`
	Deposit   string    `json:"deposit"`
	Debt      string    `json:"debt"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PositionFromDomain converts a domain position to a response.
func PositionFromDomain(p *domain.Position) *PositionResponse {
	return &PositionResponse{
		AccountID: p.AccountID,
		Deposit:   p.Deposit.Dec(),
		Debt:      p.Debt.Dec(),
		Version:   p.Version,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// PositionDetailResponse is a position together with its price-derived
// health data.
type PositionDetailResponse struct {
	Position          *PositionResponse `json:"position"`
	Quote             *QuoteResponse    `json:"quote"`
	BorrowCapacity    string            `json:"borrow_capacity"`
	MinimumCollateral string            `json:"minimum_collateral"`
	Collateralized    bool              `json:"collateralized"`
}

// PositionDetailFromUseCase converts use case position detail to a response.
func PositionDetailFromUseCase(d *usecase.PositionDetail) *PositionDetailResponse {
	return &PositionDetailResponse{
		Position:          PositionFromDomain(d.Position),
		Quote:             QuoteFromDomain(d.Quote),
		BorrowCapacity:    d.BorrowCapacity.Dec(),
		MinimumCollateral: d.MinimumCollateral.Dec(),
		Collateralized:    d.Collateralized,
	}
}

// QuoteResponse represents an oracle quote in API responses.
type QuoteResponse struct {
	Price    string `json:"price"`
	Decimals uint8  `json:"decimals"`
}

// QuoteFromDomain converts a domain quote to a response.
func QuoteFromDomain(q domain.Quote) *QuoteResponse {
	return &QuoteResponse{
		Price:    q.Price.Dec(),
		Decimals: q.Decimals,
	}
}

// LiquidationResponse reports the balances written off by a liquidation.
type LiquidationResponse struct {
	AccountID         string         `json:"account_id"`
	DepositWrittenOff string         `json:"deposit_written_off"`
	DebtWrittenOff    string         `json:"debt_written_off"`
	Price             *QuoteResponse `json:"price"`
	LiquidatedAt      time.Time      `json:"liquidated_at"`
}

// LiquidationFromUseCase converts a use case liquidation result to a response.
func LiquidationFromUseCase(r *usecase.LiquidationResult) *LiquidationResponse {
	return &LiquidationResponse{
		AccountID:         r.AccountID,
		DepositWrittenOff: r.DepositWrittenOff.Dec(),
		DebtWrittenOff:    r.DebtWrittenOff.Dec(),
		Price:             QuoteFromDomain(r.Price),
		LiquidatedAt:      r.LiquidatedAt,
	}
}

// PairResponse describes the market the engine serves.
type PairResponse struct {
	CollateralAsset    string `json:"collateral_asset"`
	DebtAsset          string `json:"debt_asset"`
	CollateralDecimals uint8  `json:"collateral_decimals"`
	DebtDecimals       uint8  `json:"debt_decimals"`
}

// PairFromDomain converts a domain pair to a response.
func PairFromDomain(p domain.Pair) *PairResponse {
	return &PairResponse{
		CollateralAsset:    p.CollateralAsset,
		DebtAsset:          p.DebtAsset,
		CollateralDecimals: p.CollateralDecimals,
		DebtDecimals:       p.DebtDecimals,
	}
}

// AuditLogResponse represents a privileged-call audit record.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	CallerID     string         `json:"caller_id"`
	Action       string         `json:"action"`
	AccountID    string         `json:"account_id"`
	RequestID    string         `json:"request_id,omitempty"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogFromDomain converts a domain audit log to a response.
func AuditLogFromDomain(l *domain.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:           l.ID,
		CallerID:     l.CallerID,
		Action:       l.Action,
		AccountID:    l.AccountID,
		RequestID:    l.RequestID,
		BeforeState:  l.BeforeState,
		AfterState:   l.AfterState,
		Status:       l.Status,
		ErrorMessage: l.ErrorMessage,
		CreatedAt:    l.CreatedAt,
	}
}

// AuditLogsFromDomain converts domain audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = AuditLogFromDomain(l)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
