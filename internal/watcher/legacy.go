package watcher

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/messaging"
	"github.com/Totem-gdn/totem-asset-indexer/internal/providers/ethereum"
)

// LegacyConfig holds the configuration for one legacy-usage watcher
type LegacyConfig struct {
	AssetType      domain.AssetType
	Contract       string
	ReconnectDelay time.Duration
}

// LegacyWatcher tails a legacy contract's usage-record stream. Unlike the
// transfer watcher it keeps no checkpoint: the usage counter is re-read from
// the contract on every record, so a missed event is corrected by the next
// one for the same asset.
type LegacyWatcher interface {
	Run(ctx context.Context) error
}

type legacyWatcher struct {
	chain     ethereum.EthereumClient
	publisher messaging.Publisher
	clock     adapter.Clock
	config    LegacyConfig
}

// NewLegacyWatcher creates a new legacy-usage watcher for one asset type
func NewLegacyWatcher(
	chain ethereum.EthereumClient,
	pub messaging.Publisher,
	cfg LegacyConfig,
	clock adapter.Clock,
) LegacyWatcher {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}

	return &legacyWatcher{
		chain:     chain,
		publisher: pub,
		clock:     clock,
		config:    cfg,
	}
}

func (w *legacyWatcher) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting legacy usage watcher",
		zap.String("asset_type", string(w.config.AssetType)),
		zap.String("contract", w.config.Contract))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := w.chain.SubscribeLegacyRecords(ctx, w.config.AssetType, w.config.Contract, func(record *ethereum.LegacyRecordEvent) error {
			return w.handleRecord(ctx, record)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WarnCtx(ctx, "Legacy record subscription dropped, reconnecting",
				zap.String("asset_type", string(w.config.AssetType)),
				zap.Error(err))
			w.clock.Sleep(w.config.ReconnectDelay)
		}
	}
}

// handleRecord reads the asset's current usage count from the contract and
// enqueues an update job carrying the fresh value
func (w *legacyWatcher) handleRecord(ctx context.Context, record *ethereum.LegacyRecordEvent) error {
	logger.InfoCtx(ctx, "Asset legacy record",
		zap.String("asset_type", string(w.config.AssetType)),
		zap.String("player", record.Player),
		zap.String("token_id", record.TokenID),
		zap.String("game_id", record.GameID))

	count, err := w.chain.LegacyUsageCount(ctx, w.config.Contract, record.TokenID)
	if err != nil {
		return err
	}

	job := domain.NewLegacyUpdateJob(w.config.AssetType, record.TokenID, count, record.TxHash, record.LogIndex)

	return w.publisher.PublishJob(ctx, job)
}
