package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// FxQuotingImpl implements the FxQuoting interface
type FxQuotingImpl struct {
	rateRepo   fx.RateRepository
	quotes     fx.QuoteStore
	currencies shared.CurrencySet
	ttl        time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewFxQuoting creates a new FX quoting service. A non-positive ttl falls back to fx.DefaultQuoteTTL.
func NewFxQuoting(logger *slog.Logger, rateRepo fx.RateRepository, quotes fx.QuoteStore, currencies shared.CurrencySet, ttl time.Duration) *FxQuotingImpl {
	if ttl <= 0 {
		ttl = fx.DefaultQuoteTTL
	}
	return &FxQuotingImpl{
		rateRepo:   rateRepo,
		quotes:     quotes,
		currencies: currencies,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// WithClock replaces the clock used to stamp quotes
func (s *FxQuotingImpl) WithClock(now func() time.Time) *FxQuotingImpl {
	s.now = now
	return s
}

func (s *FxQuotingImpl) LatestRate(ctx context.Context, base, quote string) (*fx.Rate, error) {
	from, to, err := s.parsePair(base, quote)
	if err != nil {
		return nil, err
	}

	rate, err := s.rateRepo.Latest(ctx, from, to)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	return rate, nil
}

// CreateQuote prices the amount at the latest rate and stores the quote for its TTL
func (s *FxQuotingImpl) CreateQuote(ctx context.Context, req QuoteRequest) (*fx.Quote, error) {
	from, to, err := s.parsePair(req.FromCurrency, req.ToCurrency)
	if err != nil {
		return nil, err
	}
	if req.FromAmount <= 0 {
		return nil, shared.Validation("fromAmount must be positive.")
	}

	rate, err := s.rateRepo.Latest(ctx, from, to)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}

	q, err := fx.NewQuote(rate, req.FromAmount, s.now(), s.ttl)
	if err != nil {
		return nil, err
	}

	if err := s.quotes.Save(ctx, q); err != nil {
		return nil, shared.AsCoreError(err)
	}

	s.logger.Info("Created FX quote",
		"quote_id", q.ID.String(),
		"pair", string(from)+"/"+string(to),
		"from_amount", q.FromAmount,
		"to_amount", q.ToAmount,
		"rate", q.Rate.String(),
	)
	return q, nil
}

func (s *FxQuotingImpl) GetQuote(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	q, err := s.quotes.Get(ctx, id)
	if err != nil {
		return nil, shared.AsCoreError(err)
	}
	if q.Expired(s.now()) {
		return nil, shared.AsCoreError(fx.ErrQuoteNotFound{ID: id})
	}
	return q, nil
}

func (s *FxQuotingImpl) parsePair(base, quote string) (shared.Currency, shared.Currency, error) {
	from, err := s.currencies.Parse("fromCurrency", base)
	if err != nil {
		return "", "", err
	}
	to, err := s.currencies.Parse("toCurrency", quote)
	if err != nil {
		return "", "", err
	}
	if from == to {
		return "", "", shared.Validation("Currencies must differ.")
	}
	return from, to, nil
}

var _ FxQuoting = (*FxQuotingImpl)(nil)
