package usecase

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
)

// PositionRepository defines data access for ledger positions. Unseen
// accounts are reported as zero positions, never as not-found.
type PositionRepository interface {
	GetByAccount(ctx context.Context, accountID string) (*domain.Position, error)
	// GetForUpdate locks the position row for the duration of tx,
	// creating the zero row on first touch.
	GetForUpdate(ctx context.Context, tx Transaction, accountID string) (*domain.Position, error)
	UpdateBalances(ctx context.Context, tx Transaction, accountID string, deposit, debt *uint256.Int, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Position, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error)
}

// PriceOracle reports the current collateral/debt exchange rate. The
// engine queries it once per logical operation.
type PriceOracle interface {
	LatestQuote(ctx context.Context) (domain.Quote, error)
}

// AssetGateway moves assets between account custody and engine custody.
// Any error is treated as a hard failure of the enclosing operation.
type AssetGateway interface {
	TransferIn(ctx context.Context, accountID, asset string, amount *uint256.Int) error
	TransferOut(ctx context.Context, accountID, asset string, amount *uint256.Int) error
}

// AccessController answers whether a caller may run privileged operations.
type AccessController interface {
	IsAuthorizedOperator(ctx context.Context, callerID string) (bool, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage conflicts. Engine
// rejections are never retried; retry of those is a caller-level policy.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops an in-flight claim so the request may be retried.
	Release(ctx context.Context, key string) error
}
