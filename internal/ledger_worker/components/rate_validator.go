package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/ledger_worker/service"
	"github.com/shopspring/decimal"
)

type RateValidatorImpl struct {
	rates      fx.RateRepository
	currencies shared.CurrencySet
	logger     *slog.Logger
}

func NewRateValidator(rates fx.RateRepository, currencies shared.CurrencySet, logger *slog.Logger) service.RateValidator {
	return &RateValidatorImpl{
		rates:      rates,
		currencies: currencies,
		logger:     logger,
	}
}

// Validate requires supported, distinct currencies and a positive decimal rate
func (v *RateValidatorImpl) Validate(_ context.Context, observation *fx.RateObservation) (*fx.Rate, error) {
	base, err := v.currencies.Parse("base", observation.Base)
	if err != nil {
		return nil, err
	}
	quote, err := v.currencies.Parse("quote", observation.Quote)
	if err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(observation.Rate)
	if err != nil {
		return nil, shared.Validation("rate %q is not a decimal number", observation.Rate)
	}

	return fx.NewRate(base, quote, value, observation.AsOf, observation.Source)
}

// CheckDuplicate compares rate with the latest recorded observation for the pair
func (v *RateValidatorImpl) CheckDuplicate(ctx context.Context, rate *fx.Rate) (bool, error) {
	latest, err := v.rates.Latest(ctx, rate.Base, rate.Quote)
	if err != nil {
		if errors.Is(err, fx.ErrRateNotFound{}) {
			return false, nil
		}
		v.logger.Error("Failed to load latest rate for duplicate check", "base", rate.Base, "quote", rate.Quote, "error", err)
		return false, fmt.Errorf("duplicate check failed for %s/%s: %w", rate.Base, rate.Quote, err)
	}

	return latest.AsOf.Equal(rate.AsOf) && latest.Rate.Equal(rate.Rate), nil
}
