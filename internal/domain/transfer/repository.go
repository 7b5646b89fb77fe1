package transfer

import (
	"context"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages transfer persistence
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	// GetByID loads the transfer with its counterparty summary
	GetByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	// LockForUpdate loads the transfer row and holds its lock until the transaction ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Transfer, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]*Transfer, error)
	// UpdateStatus moves the transfer only if it is still in the expected status
	UpdateStatus(ctx context.Context, t *Transfer, expected Status) error
	WithTx(tx pgx.Tx) Repository
}

// ErrTransferNotFound indicates a missing transfer
type ErrTransferNotFound struct {
	ID uuid.UUID
}

func (e ErrTransferNotFound) Error() string {
	return "Transfer not found."
}

func (e ErrTransferNotFound) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindNotFound
	}
	t, ok := target.(ErrTransferNotFound)
	return ok && (t.ID == uuid.Nil || t.ID == e.ID)
}

// ErrStaleStatus means another writer moved the transfer first
type ErrStaleStatus struct {
	ID       uuid.UUID
	Expected Status
}

func (e ErrStaleStatus) Error() string {
	return "transfer " + e.ID.String() + " is no longer " + string(e.Expected)
}

func (e ErrStaleStatus) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindConflict
	}
	_, ok := target.(ErrStaleStatus)
	return ok
}

// ErrQuoteAlreadyUsed means another transfer already recorded the quote
type ErrQuoteAlreadyUsed struct {
	QuoteID uuid.UUID
}

func (e ErrQuoteAlreadyUsed) Error() string {
	return "Quote has already been used."
}

func (e ErrQuoteAlreadyUsed) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindConflict
	}
	_, ok := target.(ErrQuoteAlreadyUsed)
	return ok
}
