package service

import (
	"context"

	"github.com/corridor-ledger/internal/domain/fx"
)

// IngestionService records published FX rate observations
type IngestionService interface {
	// Ingest validates and appends one observation. A VALIDATION error means the
	// observation can never be accepted; any other error is worth retrying.
	Ingest(ctx context.Context, observation *fx.RateObservation) error
}

// RateValidator checks observations before they reach the rate table
type RateValidator interface {
	Validate(ctx context.Context, observation *fx.RateObservation) (*fx.Rate, error)
	// CheckDuplicate reports whether rate is already the latest for its pair,
	// which happens when the feed redelivers a message.
	CheckDuplicate(ctx context.Context, rate *fx.Rate) (bool, error)
}
