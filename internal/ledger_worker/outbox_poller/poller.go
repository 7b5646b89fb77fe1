package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corridor-ledger/internal/config"
	"github.com/corridor-ledger/internal/domain/outbox"
	"github.com/corridor-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// Poller drains the ledger outbox
type Poller struct {
	db               persistence.TxRunner
	outboxRepo       outbox.Repository
	publisher        JournalPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	db persistence.TxRunner,
	outboxRepo outbox.Repository,
	publisher JournalPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		db:               db,
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping due to context cancellation")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// processPendingMessages claims one batch with row locks and settles every row
// in the same transaction. A failed status write rolls the whole batch back.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	return p.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := p.outboxRepo.WithTx(tx)

		messages, err := repo.GetPending(ctx, p.batchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending outbox messages: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}
		p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

		for _, msg := range messages {
			if err := p.settle(ctx, repo, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

func (p *Poller) settle(ctx context.Context, repo outbox.Repository, msg *outbox.Message) error {
	logger := p.logger.With("outbox_id", msg.ID, "entry_id", msg.EntryID.String())

	publishErr := p.publisher.Publish(ctx, msg)
	if publishErr == nil {
		if err := repo.MarkProcessed(ctx, msg.ID); err != nil {
			return fmt.Errorf("entry %s published, but failed to mark outbox %d as PROCESSED: %w", msg.EntryID, msg.ID, err)
		}
		return nil
	}

	var undecodable ErrUndecodablePayload
	if errors.As(publishErr, &undecodable) {
		logger.Error("Outbox payload can never be published, marking as FAILED_TO_PUBLISH", "error", publishErr)
		return repo.MarkFailed(ctx, msg.ID)
	}

	logger.Warn("Failed to publish outbox message", "attempts", msg.Attempts, "error", publishErr)
	status, err := repo.RecordFailure(ctx, msg.ID, p.maxRetryAttempts)
	if err != nil {
		return fmt.Errorf("failed to record delivery failure for outbox %d: %w", msg.ID, err)
	}
	if status == outbox.StatusFailedToPublish {
		logger.Error("Max retry attempts reached, outbox message marked FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
	}
	return nil
}
