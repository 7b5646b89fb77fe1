package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/ledger_worker/service"
	"github.com/corridor-ledger/internal/platform/messaging/producers"
)

// RateEventHandler handles published FX rate observations from Kafka
type RateEventHandler struct {
	ingestion service.IngestionService
	dlq       producers.DeadLetterPublisher
	logger    *slog.Logger
}

// NewRateEventHandler creates a new handler. dlq may be nil when no DLQ topic is configured.
func NewRateEventHandler(
	logger *slog.Logger,
	ingestion service.IngestionService,
	dlq producers.DeadLetterPublisher,
) *RateEventHandler {
	return &RateEventHandler{
		ingestion: ingestion,
		dlq:       dlq,
		logger:    logger,
	}
}

// HandleMessage returns nil once the message is recorded or parked on the DLQ.
// A returned error leaves the offset uncommitted.
func (h *RateEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var observation fx.RateObservation
	if err := json.Unmarshal(value, &observation); err != nil {
		h.logger.Error("Failed to unmarshal rate observation", "message_key", string(key), "error", err)
		return h.deadLetter(ctx, key, value, fmt.Sprintf("malformed rate observation: %s", err.Error()), err)
	}

	err := h.ingestion.Ingest(ctx, &observation)
	if err == nil {
		return nil
	}

	if errors.Is(err, shared.ErrValidation) {
		return h.deadLetter(ctx, key, value, err.Error(), err)
	}

	h.logger.Error("Failed to ingest rate observation",
		"message_key", string(key),
		"base", observation.Base,
		"quote", observation.Quote,
		"error", err,
	)
	return fmt.Errorf("ingesting rate %s/%s failed: %w", observation.Base, observation.Quote, err)
}

func (h *RateEventHandler) deadLetter(ctx context.Context, key, value []byte, reason string, cause error) error {
	if h.dlq == nil {
		return fmt.Errorf("unprocessable rate message and no DLQ configured: %w", cause)
	}

	if err := h.dlq.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to dead-letter rate message: %w", err)
	}

	h.logger.Info("Published unprocessable rate message to DLQ", "message_key", string(key), "reason", reason)
	return nil
}
