package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/outbox"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const topUpResultMemo = "Wallet top-up"

// LedgerEngineImpl implements LedgerEngine. It holds no mutable state;
// everything lives in the store behind the repositories.
type LedgerEngineImpl struct {
	db          persistence.TxRunner
	registry    AccountRegistry
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	outboxRepo  outbox.Repository
	currencies  shared.CurrencySet
	logger      *slog.Logger
}

// NewLedgerEngine creates a new ledger engine
func NewLedgerEngine(
	logger *slog.Logger,
	db persistence.TxRunner,
	registry AccountRegistry,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	outboxRepo outbox.Repository,
	currencies shared.CurrencySet,
) *LedgerEngineImpl {
	return &LedgerEngineImpl{
		db:          db,
		registry:    registry,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		currencies:  currencies,
		logger:      logger,
	}
}

// PostBalancedEntry validates the legs and writes the entry in its own transaction
func (s *LedgerEngineImpl) PostBalancedEntry(ctx context.Context, req PostEntryRequest) (*ledger.JournalEntry, error) {
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return s.post(ctx, tx, entry)
	})
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	s.logger.Info("Posted journal entry",
		"entry_id", entry.ID.String(),
		"entry_type", string(entry.Type),
		"currency", string(entry.Currency),
		"reference_id", entry.ReferenceID.String(),
	)
	return entry, nil
}

// ReserveForTransfer posts the reservation in its own transaction
func (s *LedgerEngineImpl) ReserveForTransfer(ctx context.Context, req ReserveRequest) (uuid.UUID, error) {
	if req.Amount <= 0 {
		return uuid.Nil, shared.Validation("Amount must be positive.")
	}
	if req.ClearingID == uuid.Nil {
		clearing, err := s.ClearingAccount(ctx, req.Currency)
		if err != nil {
			return uuid.Nil, err
		}
		req.ClearingID = clearing.ID
	}

	var entryID uuid.UUID
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		id, err := s.ReserveInTx(ctx, tx, req)
		entryID = id
		return err
	})
	if err != nil {
		return uuid.Nil, shared.AsCoreError(err)
	}
	return entryID, nil
}

// ClearingAccount resolves the currency's Clearing account, creating it on first use
func (s *LedgerEngineImpl) ClearingAccount(ctx context.Context, currency shared.Currency) (*account.Account, error) {
	return s.registry.ResolvePlatformAccount(ctx, account.KindClearing, currency)
}

// ReserveInTx debits the wallet and credits Clearing for the transfer amount inside tx.
// Every read goes through tx, so the caller's connection is the only one held.
// There is no solvency check: a wallet may be reserved below zero.
func (s *LedgerEngineImpl) ReserveInTx(ctx context.Context, tx pgx.Tx, req ReserveRequest) (uuid.UUID, error) {
	if req.Amount <= 0 {
		return uuid.Nil, shared.Validation("Amount must be positive.")
	}

	accounts := s.accountRepo.WithTx(tx)
	wallet, err := walletFor(ctx, accounts, req.BusinessID, req.Currency)
	if err != nil {
		return uuid.Nil, err
	}
	clearingID := req.ClearingID
	if clearingID == uuid.Nil {
		clearing, err := accounts.FindPlatform(ctx, account.KindClearing, req.Currency)
		if err != nil {
			return uuid.Nil, shared.AsCoreError(err)
		}
		clearingID = clearing.ID
	}

	entry, err := s.buildEntry(PostEntryRequest{
		Type:          ledger.EntryTypeTransferCreate,
		Currency:      req.Currency,
		ReferenceType: ledger.ReferenceTransfer,
		ReferenceID:   req.TransferID,
		Memo:          fmt.Sprintf("Reserve for transfer %s", req.TransferID),
		Actor:         req.Actor,
		Legs: []ledger.Leg{
			{AccountID: wallet.ID, Direction: ledger.Debit, Amount: req.Amount},
			{AccountID: clearingID, Direction: ledger.Credit, Amount: req.Amount},
		},
	})
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.post(ctx, tx, entry); err != nil {
		return uuid.Nil, err
	}

	s.logger.Info("Reserved funds for transfer",
		"transfer_id", req.TransferID.String(),
		"entry_id", entry.ID.String(),
		"amount", req.Amount,
		"currency", string(req.Currency),
	)
	return entry.ID, nil
}

// TopUp credits the business wallet from Treasury. Callers are trusted to have
// reconciled the external payment before invoking it.
func (s *LedgerEngineImpl) TopUp(ctx context.Context, req TopUpRequest) (*TopUpResult, error) {
	currency, err := s.currencies.Parse("currency", req.Currency)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, shared.Validation("Amount must be positive.")
	}

	treasury, err := s.registry.ResolvePlatformAccount(ctx, account.KindTreasury, currency)
	if err != nil {
		return nil, err
	}
	wallet, err := walletFor(ctx, s.accountRepo, req.BusinessID, currency)
	if err != nil {
		return nil, err
	}

	entry, err := s.PostBalancedEntry(ctx, PostEntryRequest{
		Type:          ledger.EntryTypeWalletTopUp,
		Currency:      currency,
		ReferenceType: ledger.ReferenceTopUp,
		ReferenceID:   wallet.ID,
		Memo:          fmt.Sprintf("Wallet top-up %s", currency),
		Actor:         req.Actor,
		Legs: []ledger.Leg{
			{AccountID: treasury.ID, Direction: ledger.Debit, Amount: req.Amount},
			{AccountID: wallet.ID, Direction: ledger.Credit, Amount: req.Amount},
		},
	})
	if err != nil {
		return nil, err
	}

	return &TopUpResult{
		EntryID:  entry.ID,
		Currency: currency,
		Amount:   req.Amount,
		Memo:     topUpResultMemo,
	}, nil
}

// BalanceOf returns debits minus credits over every posting to the account
func (s *LedgerEngineImpl) BalanceOf(ctx context.Context, accountID uuid.UUID) (int64, error) {
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return 0, shared.AsCoreError(err)
	}

	debits, credits, err := s.ledgerRepo.Totals(ctx, accountID)
	if err != nil {
		return 0, shared.AsCoreError(err)
	}
	return ledger.Balance(debits, credits), nil
}

func (s *LedgerEngineImpl) buildEntry(req PostEntryRequest) (*ledger.JournalEntry, error) {
	if !s.currencies.Contains(req.Currency) {
		return nil, shared.Validation("Unsupported currency %s.", req.Currency)
	}
	entry, err := ledger.NewJournalEntry(ledger.EntryDraft{
		Type:          req.Type,
		Currency:      req.Currency,
		ReferenceType: req.ReferenceType,
		ReferenceID:   req.ReferenceID,
		Memo:          req.Memo,
		Actor:         req.Actor,
		Legs:          req.Legs,
	})
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	return entry, nil
}

// walletFor turns a missing wallet into a validation failure the caller can act on
func walletFor(ctx context.Context, accounts account.Repository, businessID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	wallet, err := accounts.FindWallet(ctx, businessID, currency)
	if err != nil {
		err = shared.AsCoreError(err)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.Validation("No wallet found for %s.", currency)
		}
		return nil, err
	}
	return wallet, nil
}

// post locks every touched account in id order, checks currencies, then writes the
// entry, its postings and the outbox row through tx.
func (s *LedgerEngineImpl) post(ctx context.Context, tx pgx.Tx, entry *ledger.JournalEntry) error {
	accounts := s.accountRepo.WithTx(tx)

	ids := make([]uuid.UUID, 0, len(entry.Postings))
	seen := make(map[uuid.UUID]bool, len(entry.Postings))
	for _, p := range entry.Postings {
		if !seen[p.AccountID] {
			seen[p.AccountID] = true
			ids = append(ids, p.AccountID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	if err := accounts.LockForUpdate(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		acc, err := accounts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if acc.Currency != entry.Currency {
			return shared.Validation("Account %s holds %s, not %s.", acc.ID, acc.Currency, entry.Currency)
		}
	}

	if err := s.ledgerRepo.WithTx(tx).CreateEntry(ctx, entry); err != nil {
		return err
	}

	msg, err := outbox.NewMessage(entry)
	if err != nil {
		return fmt.Errorf("failed to build outbox message: %w", err)
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, msg)
}

var (
	_ LedgerEngine = (*LedgerEngineImpl)(nil)
	_ TxReserver   = (*LedgerEngineImpl)(nil)
)
