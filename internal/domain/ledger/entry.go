package ledger

import (
	"time"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Direction is the side of a posting
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// EntryType names the economic event a journal entry records
type EntryType string

const (
	EntryTypeWalletTopUp    EntryType = "WALLET_TOPUP"
	EntryTypeTransferCreate EntryType = "TRANSFER_CREATE"
)

// ReferenceType names the kind of business object an entry points back to
type ReferenceType string

const (
	ReferenceTopUp    ReferenceType = "TOP_UP"
	ReferenceTransfer ReferenceType = "TRANSFER"
)

// Leg is one requested side of a balanced entry, before it becomes a posting
type Leg struct {
	AccountID uuid.UUID
	Direction Direction
	Amount    int64 // minor units
}

// JournalEntry is one immutable economic event with its postings
type JournalEntry struct {
	ID            uuid.UUID       `json:"id" bson:"entry_id"`
	Type          EntryType       `json:"entry_type" bson:"entry_type"`
	Currency      shared.Currency `json:"currency" bson:"currency"`
	ReferenceType ReferenceType   `json:"reference_type" bson:"reference_type"`
	ReferenceID   uuid.UUID       `json:"reference_id" bson:"reference_id"`
	Memo          string          `json:"memo" bson:"memo"`
	CreatedBy     uuid.UUID       `json:"created_by" bson:"created_by"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	Postings      []Posting       `json:"postings" bson:"postings"`
}

// Posting is one leg of a journal entry against one account
type Posting struct {
	ID        uuid.UUID `json:"id" bson:"id"`
	EntryID   uuid.UUID `json:"entry_id" bson:"entry_id"`
	AccountID uuid.UUID `json:"account_id" bson:"account_id"`
	Direction Direction `json:"direction" bson:"direction"`
	Amount    int64     `json:"amount" bson:"amount"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// StatementLine is a posting joined with its entry, as shown on a wallet statement
type StatementLine struct {
	PostingID uuid.UUID `json:"id"`
	Direction Direction `json:"direction"`
	Amount    int64     `json:"amount"`
	EntryType EntryType `json:"entry_type"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"created_at"`
}

// EntryDraft carries everything needed to post a balanced entry
type EntryDraft struct {
	Type          EntryType
	Currency      shared.Currency
	ReferenceType ReferenceType
	ReferenceID   uuid.UUID
	Memo          string
	Actor         uuid.UUID
	Legs          []Leg
}

// NewJournalEntry validates the draft and builds the entry with one posting per leg.
// Nothing is built unless the legs are balanced.
func NewJournalEntry(draft EntryDraft) (*JournalEntry, error) {
	if err := ValidateLegs(draft.Legs); err != nil {
		return nil, err
	}
	if draft.Type == "" {
		return nil, shared.Validation("entry type is required")
	}

	now := time.Now().UTC()
	entry := &JournalEntry{
		ID:            uuid.New(),
		Type:          draft.Type,
		Currency:      draft.Currency,
		ReferenceType: draft.ReferenceType,
		ReferenceID:   draft.ReferenceID,
		Memo:          draft.Memo,
		CreatedBy:     draft.Actor,
		CreatedAt:     now,
		Postings:      make([]Posting, 0, len(draft.Legs)),
	}
	for _, leg := range draft.Legs {
		entry.Postings = append(entry.Postings, Posting{
			ID:        uuid.New(),
			EntryID:   entry.ID,
			AccountID: leg.AccountID,
			Direction: leg.Direction,
			Amount:    leg.Amount,
			CreatedAt: now,
		})
	}
	return entry, nil
}

// ValidateLegs checks the double-entry preconditions: at least two legs,
// strictly positive amounts, known directions, and debits equal to credits.
func ValidateLegs(legs []Leg) error {
	if len(legs) < 2 {
		return shared.Validation("a journal entry needs at least two legs, got %d", len(legs))
	}

	var debits, credits int64
	for i, leg := range legs {
		if leg.AccountID == uuid.Nil {
			return shared.Validation("leg %d has no account", i)
		}
		if leg.Amount <= 0 {
			return shared.Validation("Amount must be positive.")
		}
		switch leg.Direction {
		case Debit:
			if debits > maxInt64-leg.Amount {
				return shared.Validation("leg amounts overflow")
			}
			debits += leg.Amount
		case Credit:
			if credits > maxInt64-leg.Amount {
				return shared.Validation("leg amounts overflow")
			}
			credits += leg.Amount
		default:
			return shared.Validation("leg %d has unknown direction %q", i, leg.Direction)
		}
	}

	if debits != credits {
		return shared.Validation("entry is unbalanced: debits %d, credits %d", debits, credits)
	}
	return nil
}

const maxInt64 = int64(^uint64(0) >> 1)

// Balance derives an account balance as debits minus credits.
// A wallet funded by top-ups therefore reads negative.
func Balance(debits, credits int64) int64 {
	return debits - credits
}

// Totals sums the debit and credit amounts of the given postings
func Totals(postings []Posting) (debits, credits int64) {
	for _, p := range postings {
		if p.Direction == Debit {
			debits += p.Amount
		} else {
			credits += p.Amount
		}
	}
	return debits, credits
}
