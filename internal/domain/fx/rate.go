package fx

import (
	"context"
	"time"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rate is one published observation for an ordered base/quote pair.
// Rows are append-only; the newest AsOf wins.
type Rate struct {
	ID     uuid.UUID       `json:"id"`
	Base   shared.Currency `json:"base"`
	Quote  shared.Currency `json:"quote"`
	Rate   decimal.Decimal `json:"rate"`
	AsOf   time.Time       `json:"as_of"`
	Source string          `json:"source,omitempty"`
}

// NewRate validates an observation from the market-data feed
func NewRate(base, quote shared.Currency, rate decimal.Decimal, asOf time.Time, source string) (*Rate, error) {
	if base == quote {
		return nil, shared.Validation("Currencies must differ.")
	}
	if !rate.IsPositive() {
		return nil, shared.Validation("rate must be positive, got %s", rate.String())
	}
	if asOf.IsZero() {
		return nil, shared.Validation("rate observation has no timestamp")
	}
	return &Rate{
		ID:     uuid.New(),
		Base:   base,
		Quote:  quote,
		Rate:   rate,
		AsOf:   asOf.UTC(),
		Source: source,
	}, nil
}

// RateObservation is the wire form of a published rate on the feed topic
type RateObservation struct {
	Base   string    `json:"base"`
	Quote  string    `json:"quote"`
	Rate   string    `json:"rate"`
	AsOf   time.Time `json:"as_of"`
	Source string    `json:"source"`
}

// RateRepository reads and appends published rates
type RateRepository interface {
	// Latest returns the most recently published rate for the exact ordered pair
	Latest(ctx context.Context, base, quote shared.Currency) (*Rate, error)
	Append(ctx context.Context, rate *Rate) error
}

// ErrRateNotFound means no rate was ever published for the pair
type ErrRateNotFound struct {
	Base  shared.Currency
	Quote shared.Currency
}

func (e ErrRateNotFound) Error() string {
	return "No FX rate found for " + string(e.Base) + "/" + string(e.Quote) + "."
}

func (e ErrRateNotFound) Is(target error) bool {
	if t, ok := target.(*shared.Error); ok {
		return t.Kind == shared.KindNotFound
	}
	_, ok := target.(ErrRateNotFound)
	return ok
}
