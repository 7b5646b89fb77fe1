package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LedgerRepository implements ledger.Repository over journal_entries and postings
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateEntry inserts the journal entry followed by each posting
func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *ledger.JournalEntry) error {
	entryQuery := `
		INSERT INTO journal_entries (id, entry_type, currency, reference_type, reference_id, memo, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, entryQuery,
		entry.ID,
		entry.Type,
		entry.Currency,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.Memo,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create journal entry", "entry_id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	postingQuery := `
		INSERT INTO postings (id, entry_id, account_id, direction, amount, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, p := range entry.Postings {
		_, err := r.querier.Exec(ctx, postingQuery,
			p.ID,
			p.EntryID,
			p.AccountID,
			p.Direction,
			p.Amount,
			p.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create posting",
				"entry_id", entry.ID.String(),
				"account_id", p.AccountID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to create posting: %w", err)
		}
	}

	return nil
}

// GetEntry retrieves a journal entry with its postings
func (r *LedgerRepository) GetEntry(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	entryQuery := `
		SELECT id, entry_type, currency, reference_type, reference_id, memo, created_by, created_at
		FROM journal_entries
		WHERE id = $1
	`

	var entry ledger.JournalEntry
	err := r.querier.QueryRow(ctx, entryQuery, id).Scan(
		&entry.ID,
		&entry.Type,
		&entry.Currency,
		&entry.ReferenceType,
		&entry.ReferenceID,
		&entry.Memo,
		&entry.CreatedBy,
		&entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get journal entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	postingQuery := `
		SELECT id, entry_id, account_id, direction, amount::BIGINT, created_at
		FROM postings
		WHERE entry_id = $1
		ORDER BY direction DESC, id
	`

	rows, err := r.querier.Query(ctx, postingQuery, id)
	if err != nil {
		r.logger.Error("Failed to get postings", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get postings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ledger.Posting
		if err := rows.Scan(&p.ID, &p.EntryID, &p.AccountID, &p.Direction, &p.Amount, &p.CreatedAt); err != nil {
			r.logger.Error("Failed to scan posting", "error", err)
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		entry.Postings = append(entry.Postings, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over postings", "error", err)
		return nil, fmt.Errorf("error iterating over postings: %w", err)
	}

	return &entry, nil
}

// Totals sums the account's postings per direction
func (r *LedgerRepository) Totals(ctx context.Context, accountID uuid.UUID) (int64, int64, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0)::BIGINT,
			COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0)::BIGINT
		FROM postings
		WHERE account_id = $1
	`

	var debits, credits int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&debits, &credits); err != nil {
		r.logger.Error("Failed to sum postings", "account_id", accountID.String(), "error", err)
		return 0, 0, fmt.Errorf("failed to sum postings: %w", err)
	}

	return debits, credits, nil
}

// Statement returns a page of the account's postings joined with their entries, newest first
func (r *LedgerRepository) Statement(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.StatementLine, error) {
	query := `
		SELECT p.id, p.direction, p.amount::BIGINT, e.entry_type, e.memo, p.created_at
		FROM postings p
		JOIN journal_entries e ON e.id = p.entry_id
		WHERE p.account_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to get statement", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	defer rows.Close()

	lines := make([]*ledger.StatementLine, 0, limit)
	for rows.Next() {
		var line ledger.StatementLine
		err := rows.Scan(
			&line.PostingID,
			&line.Direction,
			&line.Amount,
			&line.EntryType,
			&line.Memo,
			&line.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan statement line", "error", err)
			return nil, fmt.Errorf("failed to scan statement line: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over statement lines", "error", err)
		return nil, fmt.Errorf("error iterating over statement lines: %w", err)
	}

	return lines, nil
}

// CountPostings returns how many postings reference the account
func (r *LedgerRepository) CountPostings(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM postings
		WHERE account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count postings", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count postings: %w", err)
	}

	return count, nil
}
