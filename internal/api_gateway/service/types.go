package service

import (
	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PostEntryRequest is the input of LedgerEngine.PostBalancedEntry
type PostEntryRequest struct {
	Type          ledger.EntryType
	Currency      shared.Currency
	ReferenceType ledger.ReferenceType
	ReferenceID   uuid.UUID
	Memo          string
	Actor         uuid.UUID
	Legs          []ledger.Leg
}

type ReserveRequest struct {
	TransferID uuid.UUID
	BusinessID uuid.UUID
	Currency   shared.Currency
	Amount     int64
	Actor      uuid.UUID

	// ClearingID is the Clearing account from ClearingAccount. When zero it is
	// read through the reserving transaction and must already exist.
	ClearingID uuid.UUID
}

type TopUpRequest struct {
	BusinessID uuid.UUID
	Currency   string
	Amount     int64
	Actor      uuid.UUID
}

// TopUpResult describes the posted top-up entry
type TopUpResult struct {
	EntryID  uuid.UUID       `json:"entry_id"`
	Currency shared.Currency `json:"currency"`
	Amount   int64           `json:"amount"`
	Memo     string          `json:"memo"`
}

type QuoteRequest struct {
	FromCurrency string
	ToCurrency   string
	FromAmount   int64
}

// CreateTransferRequest carries the caller-supplied transfer fields.
// ToAmount may be zero when QuoteID is set; the quote then supplies it.
type CreateTransferRequest struct {
	CounterpartyID uuid.UUID
	FromCurrency   string
	ToCurrency     string
	FromAmount     int64
	ToAmount       int64
	FeeAmount      int64
	QuoteID        *uuid.UUID
}

// WalletBalance is a wallet with its freshly derived balance
type WalletBalance struct {
	Account *account.Account `json:"account"`
	Balance int64            `json:"balance"`
}

// StatementPage is one page of a wallet statement, newest first
type StatementPage struct {
	AccountID  uuid.UUID               `json:"account_id"`
	Currency   shared.Currency         `json:"currency"`
	Lines      []*ledger.StatementLine `json:"lines"`
	Page       int                     `json:"page"`
	Limit      int                     `json:"limit"`
	Total      int64                   `json:"total"`
	TotalPages int                     `json:"total_pages"`
}
