package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/ledger"
	"github.com/corridor-ledger/internal/domain/outbox"
	"github.com/corridor-ledger/internal/platform/messaging/producers"
)

// JournalPublisher delivers one committed journal entry downstream
type JournalPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// ErrUndecodablePayload marks an outbox row that can never be published
type ErrUndecodablePayload struct {
	OutboxID int64
	Err      error
}

func (e ErrUndecodablePayload) Error() string {
	return fmt.Sprintf("outbox message %d has an undecodable payload: %v", e.OutboxID, e.Err)
}

func (e ErrUndecodablePayload) Unwrap() error {
	return e.Err
}

// JournalPublisherImpl archives the entry in the audit store, then emits it on the ledger events topic.
// Both steps are idempotent per entry id, so a retried row is safe.
type JournalPublisherImpl struct {
	archive ledger.Archive
	events  producers.MessagePublisher
	logger  *slog.Logger
}

func NewJournalPublisher(
	archive ledger.Archive,
	events producers.MessagePublisher,
	logger *slog.Logger,
) JournalPublisher {
	return &JournalPublisherImpl{
		archive: archive,
		events:  events,
		logger:  logger,
	}
}

func (p *JournalPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	entry, err := message.JournalEntry()
	if err != nil {
		p.logger.Error("Failed to unmarshal journal entry from outbox payload", "outbox_id", message.ID, "error", err)
		return ErrUndecodablePayload{OutboxID: message.ID, Err: err}
	}

	logger := p.logger.With("outbox_id", message.ID, "entry_id", entry.ID.String())

	if err := p.archive.Archive(ctx, entry); err != nil {
		logger.Error("Failed to archive journal entry", "error", err)
		return fmt.Errorf("failed to archive entry %s: %w", entry.ID, err)
	}

	if err := p.events.Publish(ctx, entry.ID.String(), entry); err != nil {
		logger.Error("Failed to publish ledger event", "error", err)
		return fmt.Errorf("failed to publish entry %s: %w", entry.ID, err)
	}

	logger.Info("Journal entry archived and published", "entry_type", entry.Type, "currency", entry.Currency)
	return nil
}
