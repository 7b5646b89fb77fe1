package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// QuoteStore implements fx.QuoteStore on Redis. Each quote lives under its own key
// with a Redis TTL matching its expiry, and GETDEL hands it out at most once.
type QuoteStore struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

// NewQuoteStore creates a Redis-backed quote store
func NewQuoteStore(logger *slog.Logger, client *redis.Client, prefix string) fx.QuoteStore {
	return &QuoteStore{
		client: client,
		prefix: prefix,
		logger: logger,
		now:    time.Now,
	}
}

func (s *QuoteStore) key(id uuid.UUID) string {
	return s.prefix + id.String()
}

// Save stores the quote until its expiry
func (s *QuoteStore) Save(ctx context.Context, q *fx.Quote) error {
	ttl := q.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("quote %s already expired", q.ID)
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	if err := s.client.Set(ctx, s.key(q.ID), payload, ttl).Err(); err != nil {
		s.logger.Error("Failed to save quote", "quote_id", q.ID.String(), "error", err)
		return fmt.Errorf("failed to save quote: %w", err)
	}

	return nil
}

// Get returns the quote without consuming it
func (s *QuoteStore) Get(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	return s.decode(id, raw, err, "get")
}

// Consume removes the quote and returns it. A second call for the same id fails.
func (s *QuoteStore) Consume(ctx context.Context, id uuid.UUID) (*fx.Quote, error) {
	raw, err := s.client.GetDel(ctx, s.key(id)).Bytes()
	return s.decode(id, raw, err, "consume")
}

func (s *QuoteStore) decode(id uuid.UUID, raw []byte, err error, op string) (*fx.Quote, error) {
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fx.ErrQuoteNotFound{ID: id}
		}
		s.logger.Error("Failed to "+op+" quote", "quote_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s quote: %w", op, err)
	}

	var q fx.Quote
	if err := json.Unmarshal(raw, &q); err != nil {
		s.logger.Error("Failed to decode stored quote", "quote_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}

	// Redis and the store may disagree on the clock
	if q.Expired(s.now()) {
		return nil, fx.ErrQuoteNotFound{ID: id}
	}

	return &q, nil
}
