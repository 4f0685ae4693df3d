package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// AuditRepository implements usecase.AuditRepository.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

const insertAuditLog = `
INSERT INTO audit_logs (id, caller_id, action, account_id, request_id, before_state, after_state, status, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// Create writes an audit record outside any ledger transaction, used for
// rejected privileged calls.
func (r *AuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	before, after, err := marshalStates(log)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, insertAuditLog,
		log.ID, log.CallerID, log.Action, log.AccountID, log.RequestID,
		before, after, log.Status, log.ErrorMessage, timeToPgTimestamptz(log.CreatedAt))

	return err
}

// CreateTx writes an audit record inside the ledger transaction, so the
// record exists exactly when the audited mutation does.
func (r *AuditRepository) CreateTx(ctx context.Context, tx usecase.Transaction, log *domain.AuditLog) error {
	pgxTx := tx.(*Tx).PgxTx()

	before, after, err := marshalStates(log)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, insertAuditLog,
		log.ID, log.CallerID, log.Action, log.AccountID, log.RequestID,
		before, after, log.Status, log.ErrorMessage, timeToPgTimestamptz(log.CreatedAt))

	return err
}

// ListByAccount returns audit records for a ledger account, newest first.
func (r *AuditRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, caller_id, action, account_id, request_id, before_state, after_state, status, error_message, created_at
		FROM audit_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*domain.AuditLog
	for rows.Next() {
		log, err := scanAuditLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func marshalStates(log *domain.AuditLog) ([]byte, []byte, error) {
	var before, after []byte

	if log.BeforeState != nil {
		var err error
		before, err = json.Marshal(log.BeforeState)
		if err != nil {
			return nil, nil, err
		}
	}

	if log.AfterState != nil {
		var err error
		after, err = json.Marshal(log.AfterState)
		if err != nil {
			return nil, nil, err
		}
	}

	return before, after, nil
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var (
		log       domain.AuditLog
		before    []byte
		after     []byte
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&log.ID, &log.CallerID, &log.Action, &log.AccountID, &log.RequestID,
		&before, &after, &log.Status, &log.ErrorMessage, &createdAt); err != nil {
		return nil, err
	}

	if len(before) > 0 {
		if err := json.Unmarshal(before, &log.BeforeState); err != nil {
			return nil, err
		}
	}
	if len(after) > 0 {
		if err := json.Unmarshal(after, &log.AfterState); err != nil {
			return nil, err
		}
	}

	log.CreatedAt = createdAt.Time

	return &log, nil
}
