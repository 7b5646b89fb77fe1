package account

import (
	"fmt"
	"time"

	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Kind distinguishes customer wallets from platform-held pools
type Kind string

const (
	KindCustomerWallet Kind = "CUSTOMER_WALLET"
	KindTreasury       Kind = "TREASURY"
	KindClearing       Kind = "CLEARING"
)

// IsPlatform reports whether accounts of this kind are owned by the platform
func (k Kind) IsPlatform() bool {
	return k == KindTreasury || k == KindClearing
}

// Account is a ledger-tracked pool of money in one currency.
// The balance is never stored; it is derived from postings.
type Account struct {
	ID         uuid.UUID       `json:"id"`
	BusinessID *uuid.UUID      `json:"business_id,omitempty"` // nil for platform accounts
	Currency   shared.Currency `json:"currency"`
	Kind       Kind            `json:"kind"`
	Label      string          `json:"label"`
	IsPlatform bool            `json:"is_platform"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewPlatformAccount builds the shared Treasury or Clearing account for a currency
func NewPlatformAccount(kind Kind, currency shared.Currency) (*Account, error) {
	if !kind.IsPlatform() {
		return nil, ErrNotPlatformKind{Kind: kind}
	}
	return &Account{
		ID:         uuid.New(),
		Currency:   currency,
		Kind:       kind,
		Label:      PlatformLabel(kind, currency),
		IsPlatform: true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// NewWallet builds a customer wallet; used by business provisioning and tests
func NewWallet(businessID uuid.UUID, currency shared.Currency, label string) *Account {
	id := businessID
	return &Account{
		ID:         uuid.New(),
		BusinessID: &id,
		Currency:   currency,
		Kind:       KindCustomerWallet,
		Label:      label,
		CreatedAt:  time.Now().UTC(),
	}
}

// PlatformLabel is the display label of a lazily provisioned platform account
func PlatformLabel(kind Kind, currency shared.Currency) string {
	name := "Treasury"
	if kind == KindClearing {
		name = "Clearing"
	}
	return fmt.Sprintf("Platform %s %s", name, currency)
}

// OwnedBy reports whether the account is a wallet of the given business
func (a *Account) OwnedBy(businessID uuid.UUID) bool {
	return a.BusinessID != nil && *a.BusinessID == businessID
}
