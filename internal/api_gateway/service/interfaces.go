package service

import (
	"context"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/domain/transfer"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRegistry resolves platform accounts and business wallets
type AccountRegistry interface {
	// ResolvePlatformAccount returns the Treasury or Clearing account for the currency,
	// creating it on first use. Concurrent callers always observe the same account.
	ResolvePlatformAccount(ctx context.Context, kind account.Kind, currency shared.Currency) (*account.Account, error)

	// FindWallet returns the business's customer wallet. It never creates one.
	FindWallet(ctx context.Context, businessID uuid.UUID, currency shared.Currency) (*account.Account, error)
}

// LedgerEngine is the only write path for journal entries and postings
type LedgerEngine interface {
	// PostBalancedEntry writes the entry, its postings and its outbox row atomically.
	// Unbalanced or malformed legs are rejected before anything is written.
	PostBalancedEntry(ctx context.Context, req PostEntryRequest) (*ledger.JournalEntry, error)

	// ReserveForTransfer debits the business wallet and credits the currency's Clearing account
	ReserveForTransfer(ctx context.Context, req ReserveRequest) (uuid.UUID, error)

	// TopUp debits the currency's Treasury account and credits the business wallet
	TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error)

	// BalanceOf derives the account balance from its postings
	BalanceOf(ctx context.Context, accountID uuid.UUID) (int64, error)
}

// TxReserver posts a transfer reservation inside a transaction owned by the caller.
// ClearingAccount may provision the account, so call it before the transaction opens.
type TxReserver interface {
	ClearingAccount(ctx context.Context, currency shared.Currency) (*account.Account, error)
	ReserveInTx(ctx context.Context, tx pgx.Tx, req ReserveRequest) (uuid.UUID, error)
}

// FxQuoting resolves published rates and prices time-boxed quotes
type FxQuoting interface {
	// LatestRate returns the newest rate for the exact ordered pair. Rates are never inverted.
	LatestRate(ctx context.Context, base, quote string) (*fx.Rate, error)
	CreateQuote(ctx context.Context, req QuoteRequest) (*fx.Quote, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*fx.Quote, error)
}

// TransferWorkflow drives transfers from DRAFT to PENDING_FUNDS
type TransferWorkflow interface {
	Create(ctx context.Context, caller shared.Caller, req CreateTransferRequest) (*transfer.Transfer, error)

	// Confirm reserves the source amount and moves the transfer to PENDING_FUNDS in one transaction
	Confirm(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error)
	List(ctx context.Context, caller shared.Caller) ([]*transfer.Transfer, error)
	GetByID(ctx context.Context, caller shared.Caller, id uuid.UUID) (*transfer.Transfer, error)
}

// WalletQuery serves read-only projections over a business's wallets
type WalletQuery interface {
	ListWallets(ctx context.Context, caller shared.Caller) ([]*WalletBalance, error)
	Balance(ctx context.Context, caller shared.Caller, currency string) (*WalletBalance, error)
	Statement(ctx context.Context, caller shared.Caller, currency string, page, pageSize int) (*StatementPage, error)
}
