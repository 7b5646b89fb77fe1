package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/google/uuid"
)

// Amounts travel as decimal strings of minor units so JSON clients never round them.

// TopUpRequest represents a request to fund a wallet
type TopUpRequest struct {
	Currency string `json:"currency" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// QuoteRequest represents a request to price a conversion
type QuoteRequest struct {
	FromCurrency string `json:"from_currency" binding:"required"`
	ToCurrency   string `json:"to_currency" binding:"required"`
	FromAmount   string `json:"from_amount" binding:"required"`
}

// CreateTransferRequest represents a request to draft a transfer
type CreateTransferRequest struct {
	CounterpartyID string `json:"counterparty_id" binding:"required,uuid"`
	FromCurrency   string `json:"from_currency" binding:"required"`
	ToCurrency     string `json:"to_currency" binding:"required"`
	FromAmount     string `json:"from_amount" binding:"required"`
	ToAmount       string `json:"to_amount,omitempty"`
	FeeAmount      string `json:"fee_amount,omitempty"`
	QuoteID        string `json:"quote_id,omitempty" binding:"omitempty,uuid"`
}

// StatementParams are the query parameters of the statement endpoint
type StatementParams struct {
	Page  int `form:"page,default=1"`
	Limit int `form:"limit"`
}

// TopUpResponse represents a posted top-up
type TopUpResponse struct {
	EntryID  string `json:"entry_id"`
	Currency string `json:"currency"`
	Amount   string `json:"amount"`
	Memo     string `json:"memo"`
}

// RateResponse represents the latest published rate of a pair
type RateResponse struct {
	Base  string `json:"base"`
	Quote string `json:"quote"`
	Rate  string `json:"rate"`
	AsOf  string `json:"as_of"`
}

// QuoteResponse represents a priced quote
type QuoteResponse struct {
	QuoteID      string `json:"quote_id"`
	FromCurrency string `json:"from_currency"`
	ToCurrency   string `json:"to_currency"`
	FromAmount   string `json:"from_amount"`
	ToAmount     string `json:"to_amount"`
	Rate         string `json:"rate"`
	ExpiresAt    string `json:"expires_at"`
}

// CounterpartyResponse is the counterparty summary embedded in a transfer
type CounterpartyResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	PayoutType string `json:"payout_type,omitempty"`
	PayoutRef  string `json:"payout_ref,omitempty"`
}

// TransferResponse represents a transfer in API responses
type TransferResponse struct {
	ID             string                `json:"id"`
	CounterpartyID string                `json:"counterparty_id"`
	FromCurrency   string                `json:"from_currency"`
	ToCurrency     string                `json:"to_currency"`
	FromAmount     string                `json:"from_amount"`
	ToAmount       string                `json:"to_amount"`
	FeeAmount      string                `json:"fee_amount"`
	Status         string                `json:"status"`
	QuoteID        string                `json:"quote_id,omitempty"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
	Counterparty   *CounterpartyResponse `json:"counterparty,omitempty"`
}

// WalletResponse represents a wallet and its derived balance
type WalletResponse struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	Label    string `json:"label"`
	Balance  string `json:"balance"`
}

// StatementLineResponse represents one posting on a wallet statement
type StatementLineResponse struct {
	ID        string `json:"id"`
	Direction string `json:"direction"`
	Amount    string `json:"amount"`
	EntryType string `json:"entry_type"`
	Memo      string `json:"memo"`
	CreatedAt string `json:"created_at"`
}

// parseAmount reads a minor-unit amount. An empty optional amount is zero.
func parseAmount(raw string, optional bool) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, optional
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatAmount(v int64) string {
	return strconv.FormatInt(v, 10)
}

func (r CreateTransferRequest) toService() (service.CreateTransferRequest, string) {
	var out service.CreateTransferRequest
	var ok bool

	out.CounterpartyID = uuid.MustParse(r.CounterpartyID)
	out.FromCurrency = r.FromCurrency
	out.ToCurrency = r.ToCurrency
	if out.FromAmount, ok = parseAmount(r.FromAmount, false); !ok {
		return out, "Invalid from_amount."
	}
	// a quoted transfer may leave to_amount to the quote
	if out.ToAmount, ok = parseAmount(r.ToAmount, r.QuoteID != ""); !ok {
		return out, "Invalid to_amount."
	}
	if out.FeeAmount, ok = parseAmount(r.FeeAmount, true); !ok {
		return out, "Invalid fee_amount."
	}
	if r.QuoteID != "" {
		id := uuid.MustParse(r.QuoteID)
		out.QuoteID = &id
	}
	return out, ""
}

func mapTopUpToResponse(res *service.TopUpResult) TopUpResponse {
	return TopUpResponse{
		EntryID:  res.EntryID.String(),
		Currency: string(res.Currency),
		Amount:   formatAmount(res.Amount),
		Memo:     res.Memo,
	}
}

func mapRateToResponse(r *fx.Rate) RateResponse {
	return RateResponse{
		Base:  string(r.Base),
		Quote: string(r.Quote),
		Rate:  r.Rate.String(),
		AsOf:  r.AsOf.Format(time.RFC3339),
	}
}

func mapQuoteToResponse(q *fx.Quote) QuoteResponse {
	return QuoteResponse{
		QuoteID:      q.ID.String(),
		FromCurrency: string(q.FromCurrency),
		ToCurrency:   string(q.ToCurrency),
		FromAmount:   formatAmount(q.FromAmount),
		ToAmount:     formatAmount(q.ToAmount),
		Rate:         q.Rate.String(),
		ExpiresAt:    q.ExpiresAt.Format(time.RFC3339),
	}
}

func mapTransferToResponse(t *transfer.Transfer) TransferResponse {
	resp := TransferResponse{
		ID:             t.ID.String(),
		CounterpartyID: t.CounterpartyID.String(),
		FromCurrency:   string(t.FromCurrency),
		ToCurrency:     string(t.ToCurrency),
		FromAmount:     formatAmount(t.FromAmount),
		ToAmount:       formatAmount(t.ToAmount),
		FeeAmount:      formatAmount(t.FeeAmount),
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.Format(time.RFC3339),
	}
	if t.QuoteID != nil {
		resp.QuoteID = t.QuoteID.String()
	}
	if cp := t.Counterparty; cp != nil {
		resp.Counterparty = &CounterpartyResponse{
			ID:         cp.ID.String(),
			Name:       cp.Name,
			Country:    cp.Country,
			PayoutType: cp.PayoutType,
			PayoutRef:  cp.PayoutRef,
		}
	}
	return resp
}

func mapWalletToResponse(w *service.WalletBalance) WalletResponse {
	return WalletResponse{
		ID:       w.Account.ID.String(),
		Currency: string(w.Account.Currency),
		Label:    w.Account.Label,
		Balance:  formatAmount(w.Balance),
	}
}

func mapStatementLine(l *ledger.StatementLine) StatementLineResponse {
	return StatementLineResponse{
		ID:        l.PostingID.String(),
		Direction: string(l.Direction),
		Amount:    formatAmount(l.Amount),
		EntryType: string(l.EntryType),
		Memo:      l.Memo,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
}
