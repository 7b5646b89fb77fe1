package counterparty

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Counterparty is a payout destination registered by a business.
// Its lifecycle belongs to business provisioning; the ledger only reads it.
type Counterparty struct {
	ID         uuid.UUID `json:"id"`
	BusinessID uuid.UUID `json:"business_id"`
	Name       string    `json:"name"`
	Country    string    `json:"country"`
	PayoutType string    `json:"payout_type"`
	PayoutRef  string    `json:"payout_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is the counterparty view embedded in transfer responses
type Summary struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Country    string    `json:"country"`
	PayoutType string    `json:"payout_type,omitempty"`
	PayoutRef  string    `json:"payout_ref,omitempty"`
}

// Reader looks up counterparties
type Reader interface {
	// GetForBusiness returns the counterparty only if it belongs to businessID
	GetForBusiness(ctx context.Context, id, businessID uuid.UUID) (*Counterparty, error)
}

// ErrCounterpartyNotFound covers both a missing counterparty and one owned by another business
type ErrCounterpartyNotFound struct {
	ID uuid.UUID
}

func (e ErrCounterpartyNotFound) Error() string {
	return "Counterparty not found or not yours."
}

func (e ErrCounterpartyNotFound) Is(target error) bool {
	_, ok := target.(ErrCounterpartyNotFound)
	return ok
}
