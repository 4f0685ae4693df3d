package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// MockPositionRepository is a mock implementation of PositionRepository.
type MockPositionRepository struct {
	mu        sync.RWMutex
	positions map[string]*domain.Position

	GetByAccountFunc   func(ctx context.Context, accountID string) (*domain.Position, error)
	GetForUpdateFunc   func(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Position, error)
	UpdateBalancesFunc func(ctx context.Context, tx usecase.Transaction, accountID string, deposit, debt *uint256.Int, updatedAt time.Time) error
	ListFunc           func(ctx context.Context, limit, offset int) ([]*domain.Position, error)
}

func NewMockPositionRepository() *MockPositionRepository {
	return &MockPositionRepository{
		positions: make(map[string]*domain.Position),
	}
}

// Seed installs a position in the backing map.
func (m *MockPositionRepository) Seed(pos *domain.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[pos.AccountID] = pos
}

// Get returns the stored position, for post-test inspection.
func (m *MockPositionRepository) Get(accountID string) *domain.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.positions[accountID]
}

func (m *MockPositionRepository) GetByAccount(ctx context.Context, accountID string) (*domain.Position, error) {
	if m.GetByAccountFunc != nil {
		return m.GetByAccountFunc(ctx, accountID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if pos, ok := m.positions[accountID]; ok {
		return pos, nil
	}
	return domain.NewPosition(accountID), nil
}

func (m *MockPositionRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Position, error) {
	if m.GetForUpdateFunc != nil {
		return m.GetForUpdateFunc(ctx, tx, accountID)
	}
	return m.GetByAccount(ctx, accountID)
}

func (m *MockPositionRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, accountID string, deposit, debt *uint256.Int, updatedAt time.Time) error {
	if m.UpdateBalancesFunc != nil {
		return m.UpdateBalancesFunc(ctx, tx, accountID, deposit, debt, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.positions[accountID]
	if !ok {
		pos = domain.NewPosition(accountID)
		m.positions[accountID] = pos
	}
	pos.Deposit = deposit
	pos.Debt = debt
	pos.UpdatedAt = updatedAt
	pos.Version++
	return nil
}

func (m *MockPositionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Position, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Position
	for _, pos := range m.positions {
		out = append(out, pos)
	}
	return out, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.Mutex
	Events []*domain.OutboxEvent

	CreateFunc func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.OutboxEvent
	for _, e := range m.Events {
		if !e.Published {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.Events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	return nil
}

// MockAuditRepository is a mock implementation of AuditRepository.
type MockAuditRepository struct {
	mu   sync.Mutex
	Logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, log)
	return nil
}

func (m *MockAuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	return m.Create(ctx, log)
}

func (m *MockAuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.AuditLog
	for _, l := range m.Logs {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out, nil
}

// MockPriceOracle is a mock implementation of PriceOracle.
type MockPriceOracle struct {
	LatestQuoteFunc func(ctx context.Context) (domain.Quote, error)
}

func NewMockPriceOracle() *MockPriceOracle {
	return &MockPriceOracle{}
}

func (m *MockPriceOracle) LatestQuote(ctx context.Context) (domain.Quote, error) {
	if m.LatestQuoteFunc != nil {
		return m.LatestQuoteFunc(ctx)
	}
	return domain.Quote{Price: uint256.NewInt(1), Decimals: 0}, nil
}

// MockAssetGateway is a mock implementation of AssetGateway.
type MockAssetGateway struct {
	mu       sync.Mutex
	Inbound  []TransferCall
	Outbound []TransferCall

	TransferInFunc  func(ctx context.Context, accountID, asset string, amount *uint256.Int) error
	TransferOutFunc func(ctx context.Context, accountID, asset string, amount *uint256.Int) error
}

// TransferCall records one transfer request.
type TransferCall struct {
	AccountID string
	Asset     string
	Amount    *uint256.Int
}

func NewMockAssetGateway() *MockAssetGateway {
	return &MockAssetGateway{}
}

func (m *MockAssetGateway) TransferIn(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	if m.TransferInFunc != nil {
		return m.TransferInFunc(ctx, accountID, asset, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Inbound = append(m.Inbound, TransferCall{AccountID: accountID, Asset: asset, Amount: amount})
	return nil
}

func (m *MockAssetGateway) TransferOut(ctx context.Context, accountID, asset string, amount *uint256.Int) error {
	if m.TransferOutFunc != nil {
		return m.TransferOutFunc(ctx, accountID, asset, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Outbound = append(m.Outbound, TransferCall{AccountID: accountID, Asset: asset, Amount: amount})
	return nil
}

// MockAccessController is a mock implementation of AccessController.
type MockAccessController struct {
	Operator string

	IsAuthorizedOperatorFunc func(ctx context.Context, callerID string) (bool, error)
}

func NewMockAccessController(operator string) *MockAccessController {
	return &MockAccessController{Operator: operator}
}

func (m *MockAccessController) IsAuthorizedOperator(ctx context.Context, callerID string) (bool, error) {
	if m.IsAuthorizedOperatorFunc != nil {
		return m.IsAuthorizedOperatorFunc(ctx, callerID)
	}
	return callerID == m.Operator, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	mu  sync.Mutex
	Txs []*MockTransaction

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Txs = append(m.Txs, tx)
	return tx, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu sync.Mutex
	n  int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return "id-" + string(rune('0'+m.n%10)) + time.Now().Format("150405.000000")
}
