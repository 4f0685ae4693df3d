package domain

import "time"

// Event types
const (
	EventTypePositionDeposited  = "position.deposited"
	EventTypePositionBorrowed   = "position.borrowed"
	EventTypePositionRepaid     = "position.repaid"
	EventTypePositionWithdrawn  = "position.withdrawn"
	EventTypePositionLiquidated = "position.liquidated"
)

// Aggregate types
const (
	AggregateTypePosition = "position"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// PositionMutatedEvent is the payload shared by deposit, borrow, repay and
// withdraw events. Amounts are decimal strings of base units.
type PositionMutatedEvent struct {
	AccountID string `json:"account_id"`
	Asset     string `json:"asset"`
	Amount    string `json:"amount"`
	Deposit   string `json:"deposit_balance"`
	Debt      string `json:"debt_balance"`
	EventAt   string `json:"event_at"`
}

// PositionLiquidatedEvent carries the balances written off by a
// liquidation, captured before the reset.
type PositionLiquidatedEvent struct {
	AccountID   string `json:"account_id"`
	Operator    string `json:"operator"`
	DepositLost string `json:"deposit_written_off"`
	DebtLost    string `json:"debt_written_off"`
	Price       string `json:"price"`
	EventAt     string `json:"event_at"`
}
