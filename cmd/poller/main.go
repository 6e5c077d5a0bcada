// Package main provides the periodic analysis loop entry point. It runs
// the same pipeline the API exposes on a fixed schedule.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-insight/internal/adapter"
	"github.com/wallet-insight/internal/config"
	"github.com/wallet-insight/internal/logging"
	"github.com/wallet-insight/internal/notify"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/storage"
	"github.com/wallet-insight/internal/types"
	"github.com/wallet-insight/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Global().WithError(err).Fatal("Failed to load configuration")
	}

	logging.Init(logging.ParseLevel(cfg.Logging.Level), logging.ParseFormat(cfg.Logging.Format))
	logger := logging.Global()

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

	walletRepo := storage.NewWalletRepository(postgres)
	profileRepo := storage.NewProfileRepository(postgres)
	registrationRepo := storage.NewRegistrationRepository(postgres)
	topSpenderRepo := storage.NewTopSpenderRepository(postgres)

	registry, latestSources, walletSources, chains := buildChainStack(cfg, logger)

	dispatcher := notify.NewMulti(&cfg.Notify, logger)
	alerts := service.NewAlertService(dispatcher)

	var archive service.InflowArchive
	if clickhouse != nil {
		archive = storage.NewInflowRepository(clickhouse)
	}
	aggregator := service.NewAggregatorService(registry, latestSources, walletRepo, archive, cfg.Detection.MaxWallets, logger)
	spending := service.NewSpendingService(registry, walletSources, profileRepo, cfg.Spending.TreatNegativeAsIncoming, logger)
	registrations := service.NewRegistrationService(registrationRepo, registry, logger)
	topSpenders := service.NewTopSpenderService(latestSources, topSpenderRepo, logger)

	poller := worker.NewPoller(
		worker.PollerConfig{
			Chains:   chains,
			Interval: cfg.Poller.Interval,
		},
		aggregator,
		spending,
		topSpenders,
		registrations,
		alerts,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := poller.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start poller")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := poller.Stop(stopCtx); err != nil {
		logger.WithError(err).Error("Poller stop failed")
	}
	logger.Info("Poller stopped")
}

// buildChainStack wires the enabled chains to their adapters and
// provider clients.
func buildChainStack(cfg *config.Config, logger *logging.Logger) (
	*adapter.Registry,
	map[types.ChainID]adapter.TransactionSource,
	map[types.ChainID]adapter.WalletTransactionSource,
	[]types.ChainID,
) {
	var adapters []adapter.ChainAdapter
	var chains []types.ChainID
	latest := make(map[types.ChainID]adapter.TransactionSource)
	wallet := make(map[types.ChainID]adapter.WalletTransactionSource)

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
			latest[chain], wallet[chain] = client, client
		case types.ChainBSC:
			client := adapter.NewScanClient(chain, cfg.Providers.BscscanBaseURL, cfg.Providers.BscscanAPIKey)
			adapters = append(adapters, adapter.NewEVMAdapter(chain))
			latest[chain], wallet[chain] = client, client
		case types.ChainSolana:
			client := adapter.NewSolanaClient(cfg.Providers.SolanaBaseURL, cfg.Providers.SolanaAPIKey)
			adapters = append(adapters, adapter.NewSolanaAdapter())
			latest[chain], wallet[chain] = client, client
		case types.ChainBitcoin:
			client := adapter.NewBlockchainInfoClient(cfg.Providers.BitcoinBaseURL)
			adapters = append(adapters, adapter.NewBitcoinAdapter())
			latest[chain], wallet[chain] = client, client
		}

		chains = append(chains, chain)
	}

	return adapter.NewRegistry(adapters...), latest, wallet, chains
}
