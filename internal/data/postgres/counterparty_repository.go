package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/counterparty"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CounterpartyRepository reads counterparties registered by business provisioning
type CounterpartyRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCounterpartyRepository creates a new PostgreSQL counterparty reader
func NewCounterpartyRepository(logger *slog.Logger, db *persistence.PostgresDB) counterparty.Reader {
	return &CounterpartyRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// GetForBusiness retrieves the counterparty only when it belongs to businessID
func (r *CounterpartyRepository) GetForBusiness(ctx context.Context, id, businessID uuid.UUID) (*counterparty.Counterparty, error) {
	query := `
		SELECT id, business_id, name, country, payout_type, payout_ref, created_at
		FROM counterparties
		WHERE id = $1 AND business_id = $2
	`

	var c counterparty.Counterparty
	err := r.querier.QueryRow(ctx, query, id, businessID).Scan(
		&c.ID,
		&c.BusinessID,
		&c.Name,
		&c.Country,
		&c.PayoutType,
		&c.PayoutRef,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, counterparty.ErrCounterpartyNotFound{ID: id}
		}
		r.logger.Error("Failed to get counterparty", "counterparty_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get counterparty: %w", err)
	}

	return &c, nil
}
