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
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/projector"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store"
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
	cfg, err := config.LoadProjectorConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags: map[string]string{
			"service": "projector",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting Asset Projector")

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

	// Create projector
	proj, err := projector.NewProjector(projector.Config{
		URL:             cfg.NATS.URL,
		StreamName:      cfg.NATS.StreamName,
		ConsumerName:    cfg.NATS.ConsumerName,
		MaxReconnects:   cfg.NATS.MaxReconnects,
		ReconnectWait:   cfg.NATS.ReconnectWait,
		ConnectionName:  cfg.NATS.ConnectionName,
		AckWaitTimeout:  cfg.NATS.AckWait,
		MaxDeliver:      cfg.NATS.MaxDeliver,
		NakDelay:        cfg.NATS.NakDelay,
		WorkerPoolSize:  cfg.Worker.WorkerPoolSize,
		WorkerQueueSize: cfg.Worker.WorkerQueueSize,
	}, natsJS, dataStore, jsonAdapter)
	if err != nil {
		logger.Fatal("Failed to create projector", zap.Error(err))
	}
	defer proj.Close()
	logger.Info("Projector created",
		zap.String("stream", cfg.NATS.StreamName),
		zap.String("consumer", cfg.NATS.ConsumerName))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Channel for projector errors
	errCh := make(chan error, 1)

	// Start the projector
	go func() {
		if err := proj.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case <-proj.CloseChan():
		logger.Error(errors.New("NATS connection closed unexpectedly"))
		cancel()
	case err := <-errCh:
		logger.Error(err, zap.String("component", "projector"))
		cancel()
	}

	// Give some time for graceful shutdown
	time.Sleep(time.Second)

	logger.Info("Asset Projector stopped")
}
