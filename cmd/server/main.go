// Package main provides the API server entry point for the wallet
// insight service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/api"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/notify"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/storage"
	"github.com/wallet-insight/internal/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Global().WithError(err).Fatal("Failed to load configuration")
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	logger.Info("Connecting to databases")

	postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	clickhouse, err := storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	if err != nil {
		logger.WithError(err).Warn("ClickHouse unavailable, run archive disabled")
		clickhouse = nil
	} else {
		defer clickhouse.Close()
		if err := clickhouse.EnsureSchema(context.Background()); err != nil {
			logger.WithError(err).Warn("Failed to ensure ClickHouse schema, run archive disabled")
			clickhouse = nil
		}
	}

	redisCache, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, price caching disabled")
		redisCache = nil
	} else {
		defer redisCache.Close()
	}

	logger.Info("Database connections established")

	// Repositories
	walletRepo := storage.NewWalletRepository(postgres)
	profileRepo := storage.NewProfileRepository(postgres)
	registrationRepo := storage.NewRegistrationRepository(postgres)
	topSpenderRepo := storage.NewTopSpenderRepository(postgres)

	// Chain adapters and provider clients
	registry, latestSources, walletSources, balanceSources := buildChainStack(cfg, logger)

	// Notification channels
	dispatcher := notify.NewMulti(&cfg.Notify, logger)
	logger.WithField("channels", dispatcher.Channels()).Info("Notification channels configured")
	alerts := service.NewAlertService(dispatcher)

	// Services
	var archive service.InflowArchive
	if clickhouse != nil {
		archive = storage.NewInflowRepository(clickhouse)
	}
	aggregator := service.NewAggregatorService(registry, latestSources, walletRepo, archive, cfg.Detection.MaxWallets, logger)
	spending := service.NewSpendingService(registry, walletSources, profileRepo, cfg.Spending.TreatNegativeAsIncoming, logger)
	registrations := service.NewRegistrationService(registrationRepo, registry, logger)
	topSpenders := service.NewTopSpenderService(latestSources, topSpenderRepo, logger)

	var priceCache service.PriceCache
	if redisCache != nil {
		priceCache = redisCache
	}
	market := service.NewMarketService(
		adapter.NewCoinGeckoClient(cfg.Providers.CoinGeckoBaseURL),
		priceCache,
		cfg.Providers.PriceCacheTTL,
		logger,
	)
	recommender := service.NewRecommenderService(market, balanceSources, registry, logger)

	// HTTP server
	server := api.NewServer(
		&api.ServerConfig{
			Host:              cfg.Server.Host,
			Port:              cfg.Server.Port,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		},
		aggregator,
		spending,
		registrations,
		market,
		recommender,
		topSpenders,
		walletRepo,
		profileRepo,
		alerts,
		logger,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server failed")
	case sig := <-sigCh:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}

// buildChainStack wires the enabled chains to their adapters and
// provider clients. Chains without a configured provider are skipped.
func buildChainStack(cfg *config.Config, logger *logging.Logger) (
	*adapter.Registry,
	map[types.ChainID]adapter.TransactionSource,
	map[types.ChainID]adapter.WalletTransactionSource,
	map[types.ChainID]adapter.BalanceSource,
) {
	var adapters []adapter.ChainAdapter
	latest := make(map[types.ChainID]adapter.TransactionSource)
	wallet := make(map[types.ChainID]adapter.WalletTransactionSource)
	balance := make(map[types.ChainID]adapter.BalanceSource)

	for _, name := range cfg.Chains.Enabled {
		chain, ok := types.ParseChainID(name)
		if !ok {
			logger.WithField("chain", name).Warn("Skipping unknown chain")
			continue
		}

		switch chain {
		case types.ChainEthereum:
			client := adapter.NewScanClient(chain, cfg.Providers.EtherscanBaseURL, cfg.Providers.EtherscanAPIKey)
			adapters = append(adapters, adapter.NewEVMAdapter(chain))
			latest[chain], wallet[chain], balance[chain] = client, client, client
		case types.ChainBSC:
			client := adapter.NewScanClient(chain, cfg.Providers.BscscanBaseURL, cfg.Providers.BscscanAPIKey)
			adapters = append(adapters, adapter.NewEVMAdapter(chain))
			latest[chain], wallet[chain], balance[chain] = client, client, client
		case types.ChainSolana:
			client := adapter.NewSolanaClient(cfg.Providers.SolanaBaseURL, cfg.Providers.SolanaAPIKey)
			adapters = append(adapters, adapter.NewSolanaAdapter())
			latest[chain], wallet[chain], balance[chain] = client, client, client
		case types.ChainBitcoin:
			client := adapter.NewBlockchainInfoClient(cfg.Providers.BitcoinBaseURL)
			adapters = append(adapters, adapter.NewBitcoinAdapter())
			latest[chain], wallet[chain], balance[chain] = client, client, client
		}

		logger.WithField("chain", chain).Info("Chain enabled")
	}

	return adapter.NewRegistry(adapters...), latest, wallet, balance
}
