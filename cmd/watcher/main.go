package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/config"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/providers/ethereum"
	"github.com/Totem-gdn/totem-asset-indexer/internal/providers/jetstream"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store"
	"github.com/Totem-gdn/totem-asset-indexer/internal/watcher"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to the directory containing .env files")
)

func main() {
	flag.Parse()

	// Change to repo root so relative config paths resolve
	config.ChdirRepoRoot()

	// Load configuration
	cfg, err := config.LoadWatcherConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "watcher",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Asset Watcher")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.ConfigureConnectionPool(db,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
		cfg.Database.ConnMaxIdleTime,
	); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)

	// Initialize adapters
	jsonAdapter := adapter.NewJSON()
	natsJS := adapter.NewNatsJetStream()
	clock := adapter.NewClock()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to the queue; the publisher owns the stream definition
	pub, err := jetstream.NewPublisher(ctx, jetstream.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  cfg.NATS.ReconnectWait,
		ConnectionName: cfg.NATS.ConnectionName,
		DedupWindow:    cfg.NATS.DedupWindow,
		MaxAge:         cfg.NATS.MaxAge,
	}, natsJS, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to create publisher", zap.Error(err))
	}
	defer pub.Close()
	logger.Info("Connected to NATS", zap.String("stream", cfg.NATS.StreamName))

	// Dial the chain twice: HTTP for backfill queries and counter reads,
	// websocket for live subscriptions
	dialer := adapter.NewEthClientDialer()
	rpcConn, err := dialer.Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.Fatal("Failed to connect to Ethereum RPC node", zap.Error(err),
			zap.String("url", cfg.Ethereum.RPCURL))
	}
	wsConn, err := dialer.Dial(ctx, cfg.Ethereum.WebSocketURL)
	if err != nil {
		logger.Fatal("Failed to connect to Ethereum websocket node", zap.Error(err),
			zap.String("url", cfg.Ethereum.WebSocketURL))
	}
	chain := ethereum.NewClient(rpcConn, wsConn, clock)
	defer chain.Close()
	logger.Info("Connected to Ethereum node")

	// Channel for watcher errors
	errCh := make(chan error, 2*len(domain.AllAssetTypes))

	// One transfer watcher per configured asset type
	for _, assetType := range domain.AllAssetTypes {
		contract := cfg.Ethereum.Contracts.ForAssetType(assetType)
		if contract == "" {
			logger.Warn("No contract configured, skipping asset type",
				zap.String("asset_type", string(assetType)))
			continue
		}

		w := watcher.NewWatcher(chain, pub, dataStore, watcher.Config{
			AssetType:       assetType,
			Contract:        contract,
			DeployBlock:     cfg.Ethereum.DeployBlock,
			ChunkSize:       cfg.Ethereum.ChunkSize,
			ReconnectDelay:  cfg.ReconnectDelay,
			RetryMaxElapsed: cfg.RetryMaxElapsed,
		}, clock)

		go func(assetType domain.AssetType) {
			if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watcher %s: %w", assetType, err)
			}
		}(assetType)
	}

	// One legacy usage watcher per configured legacy contract
	for _, assetType := range domain.AllAssetTypes {
		contract := cfg.Ethereum.LegacyContracts.ForAssetType(assetType)
		if contract == "" {
			continue
		}

		lw := watcher.NewLegacyWatcher(chain, pub, watcher.LegacyConfig{
			AssetType:      assetType,
			Contract:       contract,
			ReconnectDelay: cfg.ReconnectDelay,
		}, clock)

		go func(assetType domain.AssetType) {
			if err := lw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("legacy watcher %s: %w", assetType, err)
			}
		}(assetType)
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal, a lost queue connection or a watcher error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case <-pub.CloseChan():
		logger.Error(errors.New("NATS connection closed unexpectedly"))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "watcher"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Asset Watcher stopped")
}
