package components

import (
	"log/slog"

	"github.com/corridor-ledger/internal/config"
	"github.com/corridor-ledger/internal/domain/fx"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/ledger_worker/service"
)

// CreateIngestionService wires the rate validator and, when it can be built, the worker pool
func CreateIngestionService(
	rates fx.RateRepository,
	logger *slog.Logger,
	cfg *config.Config,
) service.IngestionService {
	currencies := shared.NewCurrencySet(cfg.FX.SupportedCurrencies...)
	validator := NewRateValidator(rates, currencies, logger)
	baseService := service.NewIngestionService(rates, validator, logger)

	workerPoolService, err := service.NewWorkerPoolIngestionService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool ingestion service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
