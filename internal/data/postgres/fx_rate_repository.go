package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FxRateRepository implements fx.RateRepository over the append-only fx_rates table
type FxRateRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewFxRateRepository creates a new PostgreSQL FX rate repository
func NewFxRateRepository(logger *slog.Logger, db *persistence.PostgresDB) fx.RateRepository {
	return &FxRateRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Latest returns the newest observation for the exact ordered pair. Rates are
// read as text so no precision is lost on the way into decimal.Decimal.
func (r *FxRateRepository) Latest(ctx context.Context, base, quote shared.Currency) (*fx.Rate, error) {
	query := `
		SELECT id, base, quote, rate::TEXT, as_of, source
		FROM fx_rates
		WHERE base = $1 AND quote = $2
		ORDER BY as_of DESC, created_at DESC
		LIMIT 1
	`

	var rate fx.Rate
	var raw string
	err := r.querier.QueryRow(ctx, query, base, quote).Scan(
		&rate.ID,
		&rate.Base,
		&rate.Quote,
		&raw,
		&rate.AsOf,
		&rate.Source,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fx.ErrRateNotFound{Base: base, Quote: quote}
		}
		r.logger.Error("Failed to get latest FX rate", "base", string(base), "quote", string(quote), "error", err)
		return nil, fmt.Errorf("failed to get latest fx rate: %w", err)
	}

	rate.Rate, err = decimal.NewFromString(raw)
	if err != nil {
		r.logger.Error("Failed to parse stored FX rate", "rate_id", rate.ID.String(), "raw", raw, "error", err)
		return nil, fmt.Errorf("failed to parse fx rate: %w", err)
	}

	return &rate, nil
}

// Append inserts one published observation
func (r *FxRateRepository) Append(ctx context.Context, rate *fx.Rate) error {
	query := `
		INSERT INTO fx_rates (id, base, quote, rate, as_of, source)
		VALUES ($1, $2, $3, $4::NUMERIC, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		rate.ID,
		rate.Base,
		rate.Quote,
		rate.Rate.String(),
		rate.AsOf,
		rate.Source,
	)
	if err != nil {
		r.logger.Error("Failed to append FX rate",
			"base", string(rate.Base),
			"quote", string(rate.Quote),
			"error", err,
		)
		return fmt.Errorf("failed to append fx rate: %w", err)
	}

	return nil
}
