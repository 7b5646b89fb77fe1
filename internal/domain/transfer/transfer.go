package transfer

import (
	"time"

	"github.com/corridor-ledger/internal/domain/counterparty"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Status is the position of a transfer in its workflow
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusPendingFunds Status = "PENDING_FUNDS"
)

// Transfer is a business's intent to move value to a counterparty
type Transfer struct {
	ID             uuid.UUID             `json:"id"`
	BusinessID     uuid.UUID             `json:"business_id"`
	CounterpartyID uuid.UUID             `json:"counterparty_id"`
	FromCurrency   shared.Currency       `json:"from_currency"`
	ToCurrency     shared.Currency       `json:"to_currency"`
	FromAmount     int64                 `json:"from_amount"`
	ToAmount       int64                 `json:"to_amount"`
	FeeAmount      int64                 `json:"fee_amount"`
	Status         Status                `json:"status"`
	FxTradeID      *uuid.UUID            `json:"fx_trade_id,omitempty"`
	QuoteID        *uuid.UUID            `json:"quote_id,omitempty"`
	CreatedBy      uuid.UUID             `json:"created_by"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Counterparty   *counterparty.Summary `json:"counterparty,omitempty"`
}

// Draft holds the caller-supplied fields of a new transfer
type Draft struct {
	BusinessID     uuid.UUID
	CounterpartyID uuid.UUID
	FromCurrency   shared.Currency
	ToCurrency     shared.Currency
	FromAmount     int64
	ToAmount       int64
	FeeAmount      int64
	QuoteID        *uuid.UUID
	CreatedBy      uuid.UUID
}

// NewTransfer validates the draft and returns a transfer in DRAFT status
func NewTransfer(d Draft) (*Transfer, error) {
	if d.FromCurrency == d.ToCurrency {
		return nil, shared.Validation("Currencies must differ.")
	}
	if d.FromAmount <= 0 || d.ToAmount <= 0 {
		return nil, shared.Validation("Amounts must be positive.")
	}
	if d.FeeAmount < 0 {
		return nil, shared.Validation("Fee must not be negative.")
	}
	if d.BusinessID == uuid.Nil {
		return nil, shared.Validation("business is required")
	}

	now := time.Now().UTC()
	return &Transfer{
		ID:             uuid.New(),
		BusinessID:     d.BusinessID,
		CounterpartyID: d.CounterpartyID,
		FromCurrency:   d.FromCurrency,
		ToCurrency:     d.ToCurrency,
		FromAmount:     d.FromAmount,
		ToAmount:       d.ToAmount,
		FeeAmount:      d.FeeAmount,
		Status:         StatusDraft,
		QuoteID:        d.QuoteID,
		CreatedBy:      d.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Authorize fails with Forbidden unless the caller's business owns the transfer
func (t *Transfer) Authorize(caller shared.Caller) error {
	if !caller.Owns(t.BusinessID) {
		return shared.Forbidden("Not your transfer.")
	}
	return nil
}

// Confirm moves a DRAFT transfer to PENDING_FUNDS. Any other status is a conflict.
func (t *Transfer) Confirm(caller shared.Caller) error {
	if err := t.Authorize(caller); err != nil {
		return err
	}
	if t.Status != StatusDraft {
		return shared.Conflict("Only DRAFT transfers can be confirmed.")
	}
	t.Status = StatusPendingFunds
	t.UpdatedAt = time.Now().UTC()
	return nil
}
