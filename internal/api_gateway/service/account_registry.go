package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/account"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRegistryImpl implements the AccountRegistry interface
type AccountRegistryImpl struct {
	accountRepo account.Repository
	currencies  shared.CurrencySet
	logger      *slog.Logger
}

// NewAccountRegistry creates a new account registry
func NewAccountRegistry(logger *slog.Logger, accountRepo account.Repository, currencies shared.CurrencySet) AccountRegistry {
	return &AccountRegistryImpl{
		accountRepo: accountRepo,
		currencies:  currencies,
		logger:      logger,
	}
}

// ResolvePlatformAccount gets or creates the platform account. Losing a creation race
// to another caller is resolved by reading the winner's row.
func (s *AccountRegistryImpl) ResolvePlatformAccount(ctx context.Context, kind account.Kind, currency shared.Currency) (*account.Account, error) {
	if !s.currencies.Contains(currency) {
		return nil, shared.Validation("Unsupported currency %s.", currency)
	}

	acc, err := s.accountRepo.FindPlatform(ctx, kind, currency)
	if err == nil {
		return acc, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound{}) {
		return nil, shared.AsCoreError(err)
	}

	candidate, err := account.NewPlatformAccount(kind, currency)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	err = s.accountRepo.Create(ctx, candidate)
	switch {
	case err == nil:
		s.logger.Info("Provisioned platform account",
			"account_id", candidate.ID.String(),
			"kind", string(kind),
			"currency", string(currency),
		)
		return candidate, nil
	case errors.Is(err, account.ErrDuplicateAccount{}):
		s.logger.Debug("Platform account created concurrently, re-reading", "kind", string(kind), "currency", string(currency))
		acc, err := s.accountRepo.FindPlatform(ctx, kind, currency)
		if err != nil {
			return nil, shared.AsCoreError(err)
		}
		return acc, nil
	default:
		return nil, shared.AsCoreError(err)
	}
}

// FindWallet returns the wallet or a NotFound error naming the currency
func (s *AccountRegistryImpl) FindWallet(ctx context.Context, businessID uuid.UUID, currency shared.Currency) (*account.Account, error) {
	acc, err := s.accountRepo.FindWallet(ctx, businessID, currency)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	return acc, nil
}
