// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be rebound to a transaction with WithTx so that ledger writes
// commit as one unit.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, business_id, currency, kind, label, is_platform, created_at`

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the account. ON CONFLICT DO NOTHING keeps a lost creation race from
// aborting the surrounding transaction; the caller sees ErrDuplicateAccount instead.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, business_id, currency, kind, label, is_platform, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := r.querier.QueryRow(ctx, query,
		acc.ID,
		acc.BusinessID,
		acc.Currency,
		acc.Kind,
		acc.Label,
		acc.IsPlatform,
		acc.CreatedAt,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.ErrDuplicateAccount{Kind: acc.Kind, Currency: acc.Currency}
		}
		r.logger.Error("Failed to create account", "kind", string(acc.Kind), "currency", string(acc.Currency), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// FindPlatform retrieves the shared platform account of a kind and currency
func (r *AccountRepository) FindPlatform(ctx context.Context, kind account.Kind, currency shared.Currency) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE business_id IS NULL AND kind = $1 AND currency = $2
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, kind, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{}
		}
		r.logger.Error("Failed to find platform account", "kind", string(kind), "currency", string(currency), "error", err)
		return nil, fmt.Errorf("failed to find platform account: %w", err)
	}

	return acc, nil
}

// FindWallet retrieves a business's customer wallet in one currency
func (r *AccountRepository) FindWallet(ctx context.Context, businessID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE business_id = $1 AND currency = $2 AND kind = $3
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, businessID, currency, account.KindCustomerWallet))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrWalletNotFound{BusinessID: businessID, Currency: currency}
		}
		r.logger.Error("Failed to find wallet", "business_id", businessID.String(), "currency", string(currency), "error", err)
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}

	return acc, nil
}

// ListWallets returns every customer wallet of the business, ordered by currency
func (r *AccountRepository) ListWallets(ctx context.Context, businessID uuid.UUID) ([]*account.Account, error) {
	query := `SELECT ` + accountColumns + `
		FROM accounts
		WHERE business_id = $1 AND kind = $2
		ORDER BY currency ASC
	`

	rows, err := r.querier.Query(ctx, query, businessID, account.KindCustomerWallet)
	if err != nil {
		r.logger.Error("Failed to list wallets", "business_id", businessID.String(), "error", err)
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []*account.Account
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan wallet", "error", err)
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, acc)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over wallets", "error", err)
		return nil, fmt.Errorf("error iterating over wallets: %w", err)
	}

	return wallets, nil
}

// LockForUpdate takes row locks on the accounts in ascending id order, so two
// entries touching the same pair of accounts cannot deadlock each other.
func (r *AccountRepository) LockForUpdate(ctx context.Context, ids []uuid.UUID) error {
	query := `
		SELECT id
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.querier.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error("Failed to lock accounts for update", "count", len(ids), "error", err)
		return fmt.Errorf("failed to lock accounts for update: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]struct{}, len(ids))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan locked account: %w", err)
		}
		locked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over locked accounts", "error", err)
		return fmt.Errorf("error iterating over locked accounts: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return account.ErrAccountNotFound{AccountID: id}
		}
	}
	return nil
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.BusinessID,
		&acc.Currency,
		&acc.Kind,
		&acc.Label,
		&acc.IsPlatform,
		&acc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
