package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/corridor-ledger/internal/api_gateway"
	"github.com/corridor-ledger/internal/api_gateway/service"
	"github.com/corridor-ledger/internal/config"
	"github.com/corridor-ledger/internal/data/cache"
	"github.com/corridor-ledger/internal/data/postgres"
	"github.com/corridor-ledger/internal/domain/shared"
	"github.com/corridor-ledger/internal/logger"
	"github.com/corridor-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	redisDB, err := persistence.NewRedisDB(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize Redis", "error", err)
		postgresDB.Close()
		os.Exit(1)
	}

	currencies := shared.NewCurrencySet(cfg.FX.SupportedCurrencies...)

	// Repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	transferRepo := postgres.NewTransferRepository(log, postgresDB)
	counterpartyRepo := postgres.NewCounterpartyRepository(log, postgresDB)
	rateRepo := postgres.NewFxRateRepository(log, postgresDB)
	quoteStore := cache.NewQuoteStore(log, redisDB.Client(), cfg.Redis.KeyPrefix)

	// Services
	registry := service.NewAccountRegistry(log, accountRepo, currencies)
	engine := service.NewLedgerEngine(log, postgresDB, registry, accountRepo, ledgerRepo, outboxRepo, currencies)
	fxQuoting := service.NewFxQuoting(log, rateRepo, quoteStore, currencies, cfg.FX.QuoteTTL)
	transfers := service.NewTransferWorkflow(log, postgresDB, transferRepo, counterpartyRepo, quoteStore, engine, currencies)
	wallets := service.NewWalletQuery(log, accountRepo, ledgerRepo, registry, currencies,
		cfg.Wallet.StatementDefaultPageSize, cfg.Wallet.StatementMaxPageSize)

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Ledger:    engine,
		Fx:        fxQuoting,
		Transfers: transfers,
		Wallets:   wallets,
	})
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain HTTP first so in-flight postings can still reach the database
	if err = server.Stop(shutdownCtx, cfg.Server.ShutdownTimeout); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if closeErr := redisDB.Close(); closeErr != nil {
		log.Error("Error closing Redis connection", "error", closeErr)
		err = closeErr
	}

	postgresDB.Close()

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
