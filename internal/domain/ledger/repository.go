package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository persists journal entries with their postings and derives balances from them.
// There is no update or delete: entries and postings are append-only.
type Repository interface {
	// CreateEntry inserts the entry and every posting. Callers must run it inside a
	// transaction so the entry is never visible without its postings.
	CreateEntry(ctx context.Context, entry *JournalEntry) error
	GetEntry(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// Totals returns the summed debit and credit amounts posted to the account
	Totals(ctx context.Context, accountID uuid.UUID) (debits, credits int64, err error)
	Statement(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*StatementLine, error)
	CountPostings(ctx context.Context, accountID uuid.UUID) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing journal entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "journal entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target EntryID is empty, consider it a match for any ErrEntryNotFound
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// Archive is the read-optimised copy of committed journal entries, fed by the outbox.
// Archiving the same entry twice is a no-op.
type Archive interface {
	Archive(ctx context.Context, entry *JournalEntry) error
	GetByEntryID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)
	ListByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID) ([]*JournalEntry, error)
}
