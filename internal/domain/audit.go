package domain

import "time"

// AuditLog records privileged engine actions for compliance and debugging.
type AuditLog struct {
	ID           string
	CallerID     string // Who performed the action
	Action       string // What action (liquidation.execute, ...)
	AccountID    string // The ledger account acted upon
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // Balances before the action
	AfterState   JSON   // Balances after the action
	Status       string // success, denied, error
	ErrorMessage string // If status != success, the reason
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// Auditable actions
const (
	AuditActionLiquidate = "liquidation.execute"
)

// Audit statuses
const (
	AuditStatusSuccess = "success"
	AuditStatusDenied  = "denied"
	AuditStatusError   = "error"
)
