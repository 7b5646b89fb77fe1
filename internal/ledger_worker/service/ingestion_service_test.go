package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newObservation() *fx.RateObservation {
	return &fx.RateObservation{
		Base:   "NGN",
		Quote:  "GHS",
		Rate:   "0.0067",
		AsOf:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Source: "feed",
	}
}

func newRate(t *testing.T) *fx.Rate {
	rate, err := fx.NewRate("NGN", "GHS", decimal.RequireFromString("0.0067"), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), "feed")
	require.NoError(t, err)
	return rate
}

func TestIngestionService_Ingest(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("AppendsValidObservation", func(t *testing.T) {
		rates, validator := new(MockRateRepository), new(MockRateValidator)
		svc := NewIngestionService(rates, validator, logger)

		obs, rate := newObservation(), newRate(t)
		validator.On("Validate", ctx, obs).Return(rate, nil).Once()
		validator.On("CheckDuplicate", ctx, rate).Return(false, nil).Once()
		rates.On("Append", ctx, rate).Return(nil).Once()

		require.NoError(t, svc.Ingest(ctx, obs))
		rates.AssertExpectations(t)
		validator.AssertExpectations(t)
	})

	t.Run("RejectsInvalidObservation", func(t *testing.T) {
		rates, validator := new(MockRateRepository), new(MockRateValidator)
		svc := NewIngestionService(rates, validator, logger)

		obs := newObservation()
		validator.On("Validate", ctx, obs).Return(nil, shared.Validation("Currencies must differ.")).Once()

		err := svc.Ingest(ctx, obs)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		rates.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("SkipsRedeliveredObservation", func(t *testing.T) {
		rates, validator := new(MockRateRepository), new(MockRateValidator)
		svc := NewIngestionService(rates, validator, logger)

		obs, rate := newObservation(), newRate(t)
		validator.On("Validate", ctx, obs).Return(rate, nil).Once()
		validator.On("CheckDuplicate", ctx, rate).Return(true, nil).Once()

		require.NoError(t, svc.Ingest(ctx, obs))
		rates.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("StorageFailureIsRetryable", func(t *testing.T) {
		rates, validator := new(MockRateRepository), new(MockRateValidator)
		svc := NewIngestionService(rates, validator, logger)

		obs, rate := newObservation(), newRate(t)
		validator.On("Validate", ctx, obs).Return(rate, nil).Once()
		validator.On("CheckDuplicate", ctx, rate).Return(false, nil).Once()
		dbErr := errors.New("connection refused")
		rates.On("Append", ctx, rate).Return(dbErr).Once()

		err := svc.Ingest(ctx, obs)
		assert.Equal(t, shared.KindStorageFailure, shared.KindOf(err))
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("DuplicateCheckFailure", func(t *testing.T) {
		rates, validator := new(MockRateRepository), new(MockRateValidator)
		svc := NewIngestionService(rates, validator, logger)

		obs, rate := newObservation(), newRate(t)
		validator.On("Validate", ctx, obs).Return(rate, nil).Once()
		validator.On("CheckDuplicate", ctx, rate).Return(false, errors.New("timeout")).Once()

		err := svc.Ingest(ctx, obs)
		assert.Equal(t, shared.KindStorageFailure, shared.KindOf(err))
		rates.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}
