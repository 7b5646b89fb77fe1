package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/corridor-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// EventTypeHeader names the kind of event carried by a ledger events message
const EventTypeHeader = "event-type"

// LedgerEventProducer publishes committed journal entries for downstream settlement.
// Writes are synchronous so the outbox row is only marked processed once the broker has the event.
type LedgerEventProducer struct {
	logger    *slog.Logger
	writer    KafkaWriter
	topic     string
	eventType string
}

// NewLedgerEventProducer creates the producer and ensures the ledger events topic exists
func NewLedgerEventProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerEventsTopic == "" {
		return nil, fmt.Errorf("kafka ledger events topic is not configured")
	}

	if err := dialAndEnsureTopic(cfg.Brokers, cfg.LedgerEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger events topic %s exists: %w", cfg.LedgerEventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LedgerEventsTopic,
		Balancer:     &kafka.Hash{}, // same entry id, same partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &LedgerEventProducer{
		logger:    logger,
		writer:    writer,
		topic:     cfg.LedgerEventsTopic,
		eventType: "journal_entry.posted",
	}, nil
}

func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(p.eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event", "topic", p.topic, "key", key)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger events producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
