package service

import (
	"context"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockRateRepository struct {
	mock.Mock
}

func (m *MockRateRepository) Latest(ctx context.Context, base, quote shared.Currency) (*fx.Rate, error) {
	args := m.Called(ctx, base, quote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fx.Rate), args.Error(1)
}

func (m *MockRateRepository) Append(ctx context.Context, rate *fx.Rate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

type MockRateValidator struct {
	mock.Mock
}

func (m *MockRateValidator) Validate(ctx context.Context, observation *fx.RateObservation) (*fx.Rate, error) {
	args := m.Called(ctx, observation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*fx.Rate), args.Error(1)
}

func (m *MockRateValidator) CheckDuplicate(ctx context.Context, rate *fx.Rate) (bool, error) {
	args := m.Called(ctx, rate)
	return args.Bool(0), args.Error(1)
}

// MockIngestionService mocks the IngestionService interface
type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, observation *fx.RateObservation) error {
	args := m.Called(ctx, observation)
	return args.Error(0)
}
