package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corridor-ledger/internal/domain/counterparty"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transferColumns = `t.id, t.business_id, t.counterparty_id, t.from_currency, t.to_currency,
		t.from_amount::BIGINT, t.to_amount::BIGINT, t.fee_amount::BIGINT, t.status,
		t.fx_trade_id, t.quote_id, t.created_by, t.created_at, t.updated_at`

const quoteConstraint = "transfers_quote_id_key"

// TransferRepository implements transfer.Repository for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL transfer repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.Repository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransferRepository) WithTx(tx pgx.Tx) transfer.Repository {
	return &TransferRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transfer
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (id, business_id, counterparty_id, from_currency, to_currency,
			from_amount, to_amount, fee_amount, status, fx_trade_id, quote_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.querier.Exec(ctx, query,
		t.ID,
		t.BusinessID,
		t.CounterpartyID,
		t.FromCurrency,
		t.ToCurrency,
		t.FromAmount,
		t.ToAmount,
		t.FeeAmount,
		t.Status,
		t.FxTradeID,
		t.QuoteID,
		t.CreatedBy,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		if t.QuoteID != nil && persistence.IsUniqueViolation(err, quoteConstraint) {
			return transfer.ErrQuoteAlreadyUsed{QuoteID: *t.QuoteID}
		}
		r.logger.Error("Failed to create transfer", "transfer_id", t.ID.String(), "error", err)
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

// GetByID retrieves a transfer with its counterparty summary
func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + `,
		c.id, c.name, c.country, c.payout_type, c.payout_ref
		FROM transfers t
		JOIN counterparties c ON c.id = t.counterparty_id
		WHERE t.id = $1
	`

	t, err := scanTransferWithCounterparty(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{ID: id}
		}
		r.logger.Error("Failed to get transfer", "transfer_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	return t, nil
}

// LockForUpdate loads the transfer row under FOR UPDATE. Must run inside a transaction.
func (r *TransferRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + `
		FROM transfers t
		WHERE t.id = $1
		FOR UPDATE
	`

	var t transfer.Transfer
	err := r.querier.QueryRow(ctx, query, id).Scan(transferDest(&t)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{ID: id}
		}
		r.logger.Error("Failed to lock transfer for update", "transfer_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock transfer for update: %w", err)
	}

	return &t, nil
}

// ListByBusiness returns the business's transfers, newest first
func (r *TransferRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*transfer.Transfer, error) {
	query := `SELECT ` + transferColumns + `,
		c.id, c.name, c.country, c.payout_type, c.payout_ref
		FROM transfers t
		JOIN counterparties c ON c.id = t.counterparty_id
		WHERE t.business_id = $1
		ORDER BY t.created_at DESC
	`

	rows, err := r.querier.Query(ctx, query, businessID)
	if err != nil {
		r.logger.Error("Failed to list transfers", "business_id", businessID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	transfers := []*transfer.Transfer{}
	for rows.Next() {
		t, err := scanTransferWithCounterparty(rows)
		if err != nil {
			r.logger.Error("Failed to scan transfer", "error", err)
			return nil, fmt.Errorf("failed to scan transfer: %w", err)
		}
		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transfers", "error", err)
		return nil, fmt.Errorf("error iterating over transfers: %w", err)
	}

	return transfers, nil
}

// UpdateStatus writes t.Status only if the stored status is still expected
func (r *TransferRepository) UpdateStatus(ctx context.Context, t *transfer.Transfer, expected transfer.Status) error {
	query := `
		UPDATE transfers
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now().UTC()
	}

	result, err := r.querier.Exec(ctx, query, t.Status, t.UpdatedAt, t.ID, expected)
	if err != nil {
		r.logger.Error("Failed to update transfer status",
			"transfer_id", t.ID.String(),
			"status", string(t.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transfer.ErrStaleStatus{ID: t.ID, Expected: expected}
	}

	return nil
}

func transferDest(t *transfer.Transfer) []any {
	return []any{
		&t.ID,
		&t.BusinessID,
		&t.CounterpartyID,
		&t.FromCurrency,
		&t.ToCurrency,
		&t.FromAmount,
		&t.ToAmount,
		&t.FeeAmount,
		&t.Status,
		&t.FxTradeID,
		&t.QuoteID,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	}
}

func scanTransferWithCounterparty(row pgx.Row) (*transfer.Transfer, error) {
	var t transfer.Transfer
	var c counterparty.Summary
	dest := append(transferDest(&t), &c.ID, &c.Name, &c.Country, &c.PayoutType, &c.PayoutRef)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	t.Counterparty = &c
	return &t, nil
}
