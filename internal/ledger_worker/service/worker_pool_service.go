package service

import (
	"context"
	"log/slog"

	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolIngestionService bounds how many observations are written concurrently
type WorkerPoolIngestionService struct {
	baseService IngestionService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolIngestionService(
	baseService IngestionService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolIngestionService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolIngestionService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Ingest runs the base service on a pool worker and waits for its result
func (s *WorkerPoolIngestionService) Ingest(ctx context.Context, observation *fx.RateObservation) error {
	resultChan := make(chan error, 1)
	observationCopy := *observation

	err := s.pool.Submit(func() {
		resultChan <- s.baseService.Ingest(ctx, &observationCopy)
	})
	if err != nil {
		s.logger.Error("Failed to submit rate observation to worker pool",
			"base", observation.Base,
			"quote", observation.Quote,
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolIngestionService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolIngestionService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolIngestionService) Capacity() int {
	return s.pool.Cap()
}
