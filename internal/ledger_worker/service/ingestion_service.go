package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
)

type IngestionServiceImpl struct {
	rates     fx.RateRepository
	validator RateValidator
	logger    *slog.Logger
}

func NewIngestionService(rates fx.RateRepository, validator RateValidator, logger *slog.Logger) IngestionService {
	return &IngestionServiceImpl{
		rates:     rates,
		validator: validator,
		logger:    logger,
	}
}

// Ingest handles the core logic for one rate observation
func (s *IngestionServiceImpl) Ingest(ctx context.Context, observation *fx.RateObservation) error {
	logger := s.logger.With("base", observation.Base, "quote", observation.Quote, "source", observation.Source)

	rate, err := s.validator.Validate(ctx, observation)
	if err != nil {
		logger.Warn("Rejected rate observation", "rate", observation.Rate, "error", err)
		return err
	}

	duplicate, err := s.validator.CheckDuplicate(ctx, rate)
	if err != nil {
		return shared.AsCoreError(err)
	}
	if duplicate {
		logger.Info("Rate observation already recorded", "as_of", rate.AsOf)
		return nil
	}

	if err := s.rates.Append(ctx, rate); err != nil {
		return shared.AsCoreError(fmt.Errorf("failed to record rate %s/%s: %w", rate.Base, rate.Quote, err))
	}

	logger.Info("Recorded rate observation", "rate_id", rate.ID.String(), "rate", rate.Rate.String(), "as_of", rate.AsOf)
	return nil
}
