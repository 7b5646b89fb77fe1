package service

import (
	"context"
	"log/slog"
	"math"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/shared"
)

const (
	defaultStatementPageSize = 20
	maxStatementPageSize     = 50
	maxStatementOffset       = math.MaxInt32
)

// WalletQueryImpl implements the WalletQuery interface
type WalletQueryImpl struct {
	accountRepo     account.Repository
	ledgerRepo      ledger.Repository
	registry        AccountRegistry
	currencies      shared.CurrencySet
	defaultPageSize int
	maxPageSize     int
	logger          *slog.Logger
}

// NewWalletQuery creates a new wallet query service. Zero page sizes fall back to 20 and 50.
func NewWalletQuery(
	logger *slog.Logger,
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	registry AccountRegistry,
	currencies shared.CurrencySet,
	defaultPageSize, maxPageSize int,
) WalletQuery {
	if maxPageSize <= 0 {
		maxPageSize = maxStatementPageSize
	}
	if defaultPageSize <= 0 || defaultPageSize > maxPageSize {
		defaultPageSize = min(defaultStatementPageSize, maxPageSize)
	}
	return &WalletQueryImpl{
		accountRepo:     accountRepo,
		ledgerRepo:      ledgerRepo,
		registry:        registry,
		currencies:      currencies,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

// ListWallets returns every wallet of the caller's business with its balance, ordered by currency
func (s *WalletQueryImpl) ListWallets(ctx context.Context, caller shared.Caller) ([]*WalletBalance, error) {
	wallets, err := s.accountRepo.ListWallets(ctx, caller.BusinessID)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	result := make([]*WalletBalance, 0, len(wallets))
	for _, w := range wallets {
		balance, err := s.balanceOf(ctx, w)
		if err != nil {
			return nil, err
		}
		result = append(result, balance)
	}
	return result, nil
}

func (s *WalletQueryImpl) Balance(ctx context.Context, caller shared.Caller, currency string) (*WalletBalance, error) {
	wallet, err := s.wallet(ctx, caller, currency)
	if err != nil {
		return nil, err
	}
	return s.balanceOf(ctx, wallet)
}

// Statement returns one page of the wallet's postings, newest first. page below 1 is
// treated as 1 and pageSize is clamped to the configured maximum. A page whose offset
// would pass maxStatementOffset is rejected.
func (s *WalletQueryImpl) Statement(ctx context.Context, caller shared.Caller, currency string, page, pageSize int) (*StatementPage, error) {
	wallet, err := s.wallet(ctx, caller, currency)
	if err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = s.defaultPageSize
	case pageSize > s.maxPageSize:
		pageSize = s.maxPageSize
	}
	if page-1 > maxStatementOffset/pageSize {
		return nil, shared.Validation("Page %d is out of range.", page)
	}
	offset := (page - 1) * pageSize

	lines, err := s.ledgerRepo.Statement(ctx, wallet.ID, pageSize, offset)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	total, err := s.ledgerRepo.CountPostings(ctx, wallet.ID)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	return &StatementPage{
		AccountID:  wallet.ID,
		Currency:   wallet.Currency,
		Lines:      lines,
		Page:       page,
		Limit:      pageSize,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}, nil
}

func (s *WalletQueryImpl) wallet(ctx context.Context, caller shared.Caller, currency string) (*account.Account, error) {
	code, err := s.currencies.Parse("currency", currency)
	if err != nil {
		return nil, err
	}
	return s.registry.FindWallet(ctx, caller.BusinessID, code)
}

func (s *WalletQueryImpl) balanceOf(ctx context.Context, wallet *account.Account) (*WalletBalance, error) {
	debits, credits, err := s.ledgerRepo.Totals(ctx, wallet.ID)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	return &WalletBalance{Account: wallet, Balance: ledger.Balance(debits, credits)}, nil
}
