package account

import (
	"context"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	// Create inserts an account. A second active account for the same
	// (owner, currency, kind) tuple fails with ErrDuplicateAccount.
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindPlatform(ctx context.Context, kind Kind, currency shared.Currency) (*Account, error)
	FindWallet(ctx context.Context, businessID uuid.UUID, currency shared.Currency) (*Account, error)
	ListWallets(ctx context.Context, businessID uuid.UUID) ([]*Account, error)

	// LockForUpdate takes row locks on the given accounts in ascending id order
	LockForUpdate(ctx context.Context, ids []uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates a missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

func (e ErrAccountNotFound) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindNotFound
	}
	t, ok := target.(ErrAccountNotFound)
	return ok && (t.AccountID == uuid.Nil || t.AccountID == e.AccountID)
}

// ErrWalletNotFound indicates the business was never provisioned a wallet in the currency
type ErrWalletNotFound struct {
	BusinessID uuid.UUID
	Currency   shared.Currency
}

func (e ErrWalletNotFound) Error() string {
	return "No wallet found for " + string(e.Currency) + "."
}

func (e ErrWalletNotFound) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindNotFound
	}
	_, ok := target.(ErrWalletNotFound)
	return ok
}

// ErrDuplicateAccount indicates the uniqueness constraint on (owner, currency, kind) fired
type ErrDuplicateAccount struct {
	Kind     Kind
	Currency shared.Currency
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists: " + string(e.Kind) + " " + string(e.Currency)
}

func (e ErrDuplicateAccount) Is(target error) bool {
	_, ok := target.(ErrDuplicateAccount)
	return ok
}

// ErrNotPlatformKind rejects platform provisioning of a customer wallet kind
type ErrNotPlatformKind struct {
	Kind Kind
}

func (e ErrNotPlatformKind) Error() string {
	return "not a platform account kind: " + string(e.Kind)
}

func (e ErrNotPlatformKind) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindValidation
	}
	_, ok := target.(ErrNotPlatformKind)
	return ok
}
