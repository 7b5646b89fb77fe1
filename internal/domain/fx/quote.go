package fx

import (
	"context"
	"time"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultQuoteTTL is how long a quote stays usable after creation
const DefaultQuoteTTL = 5 * time.Minute

// Quote is a time-boxed conversion offer derived from the latest rate
type Quote struct {
	ID           uuid.UUID       `json:"quote_id"`
	FromCurrency shared.Currency `json:"from_currency"`
	ToCurrency   shared.Currency `json:"to_currency"`
	FromAmount   int64           `json:"from_amount"`
	ToAmount     int64           `json:"to_amount"`
	Rate         decimal.Decimal `json:"rate"`
	RateAsOf     time.Time       `json:"rate_as_of"`
	CreatedAt    time.Time       `json:"created_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
}

// NewQuote prices fromAmount at rate and stamps an expiry ttl after now
func NewQuote(rate *Rate, fromAmount int64, now time.Time, ttl time.Duration) (*Quote, error) {
	if fromAmount <= 0 {
		return nil, shared.Validation("fromAmount must be positive.")
	}
	toAmount, err := Convert(fromAmount, rate.Rate)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Quote{
		ID:           uuid.New(),
		FromCurrency: rate.Base,
		ToCurrency:   rate.Quote,
		FromAmount:   fromAmount,
		ToAmount:     toAmount,
		Rate:         rate.Rate,
		RateAsOf:     rate.AsOf,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}, nil
}

// Convert multiplies a minor-unit amount by rate and rounds to the nearest
// minor unit, with ties rounded away from zero.
func Convert(amount int64, rate decimal.Decimal) (int64, error) {
	converted := decimal.NewFromInt(amount).Mul(rate).Round(0)
	if !converted.IsPositive() {
		return 0, shared.Validation("fromAmount is too small to convert at the current rate.")
	}
	if converted.GreaterThan(decimal.NewFromInt(maxMinorUnits)) {
		return 0, shared.Validation("converted amount is out of range")
	}
	return converted.IntPart(), nil
}

const maxMinorUnits = int64(^uint64(0) >> 1)

// Expired reports whether the quote can no longer be used at now
func (q *Quote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiresAt)
}

// QuoteStore keeps quotes for their TTL and hands each one out for use at most once
type QuoteStore interface {
	Save(ctx context.Context, q *Quote) error
	Get(ctx context.Context, id uuid.UUID) (*Quote, error)
	// Consume atomically removes and returns the quote
	Consume(ctx context.Context, id uuid.UUID) (*Quote, error)
}

// ErrQuoteNotFound covers unknown, expired and already consumed quotes
type ErrQuoteNotFound struct {
	ID uuid.UUID
}

func (e ErrQuoteNotFound) Error() string {
	return "Quote not found or expired."
}

func (e ErrQuoteNotFound) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindNotFound
	}
	_, ok := target.(ErrQuoteNotFound)
	return ok
}
