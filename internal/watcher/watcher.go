package watcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/messaging"
	"github.com/Totem-gdn/totem-asset-indexer/internal/providers/ethereum"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store"
)

// Config holds the configuration for one asset-type watcher
type Config struct {
	AssetType   domain.AssetType
	Contract    string
	DeployBlock uint64 // fallback start when no checkpoint exists
	ChunkSize   uint64 // eth_getLogs page size, provider-imposed ceiling
	// ReconnectDelay spaces out reconnect attempts after a live subscription
	// drop or a failed backfill pass
	ReconnectDelay time.Duration
	// RetryMaxElapsed caps one backoff cycle for a failing RPC or enqueue
	// call; the watcher then logs and starts a fresh backfill pass rather
	// than crashing
	RetryMaxElapsed time.Duration
}

// Watcher drives the backfill + live subscription loop for a single watched
// contract and enqueues normalized event jobs onto the event queue
//
//go:generate mockgen -source=watcher.go -destination=../mocks/watcher.go -package=mocks -mock_names=Watcher=MockWatcher
type Watcher interface {
	// Run starts the watcher and blocks until the context is canceled
	Run(ctx context.Context) error
}

type watcher struct {
	chain       ethereum.EthereumClient
	publisher   messaging.Publisher
	checkpoints store.CheckpointStore
	clock       adapter.Clock
	config      Config

	// lastCheckpoint is the in-memory high-water mark; writes through
	// setCheckpoint never persist a smaller block number
	lastCheckpoint uint64
}

// NewWatcher creates a new watcher for one asset type
func NewWatcher(
	chain ethereum.EthereumClient,
	pub messaging.Publisher,
	checkpoints store.CheckpointStore,
	cfg Config,
	clock adapter.Clock,
) Watcher {
	if cfg.DeployBlock == 0 {
		cfg.DeployBlock = domain.DEFAULT_DEPLOY_BLOCK
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = domain.DEFAULT_BACKFILL_CHUNK_SIZE
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.RetryMaxElapsed == 0 {
		cfg.RetryMaxElapsed = 5 * time.Minute
	}

	return &watcher{
		chain:       chain,
		publisher:   pub,
		checkpoints: checkpoints,
		clock:       clock,
		config:      cfg,
	}
}

// Run drives the Backfilling -> Live state machine. The initial state is
// always Backfilling because the span between the stored checkpoint and "now"
// may contain unprocessed events; a dropped live subscription transitions
// back to Backfilling to close the gap the same way.
func (w *watcher) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting watcher",
		zap.String("asset_type", string(w.config.AssetType)),
		zap.String("contract", w.config.Contract))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.backfill(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.ErrorCtx(ctx, err,
				zap.String("message", "Backfill pass failed, retrying"),
				zap.String("asset_type", string(w.config.AssetType)))
			w.clock.Sleep(w.config.ReconnectDelay)
			continue
		}

		logger.InfoCtx(ctx, "Backfill complete, switching to live subscription",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.Uint64("checkpoint", w.lastCheckpoint))

		if err := w.live(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.WarnCtx(ctx, "Live subscription dropped, backfilling to close the gap",
				zap.String("asset_type", string(w.config.AssetType)),
				zap.Error(err))
			w.clock.Sleep(w.config.ReconnectDelay)
		}
	}
}

// backfill replays historical events from the last checkpoint (or the deploy
// block) up to the current height. The checkpoint only advances after every
// event of a chunk has been durably enqueued, so a crash mid-chunk replays
// the chunk instead of losing it.
func (w *watcher) backfill(ctx context.Context) error {
	from, err := w.startBlock(ctx)
	if err != nil {
		return err
	}

	to, err := w.currentHeight(ctx)
	if err != nil {
		return err
	}

	chunk := w.config.ChunkSize

	for from < to {
		logger.DebugCtx(ctx, "Fetching blocks",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.Uint64("from", from),
			zap.Uint64("to", from+chunk))

		events, err := w.chain.FilterTransfers(ctx, w.config.AssetType, w.config.Contract, from, from+chunk)
		if err != nil {
			if errors.Is(err, domain.ErrRangeTooLarge) {
				// Provider rejected the span: halve and retry, never drop
				if chunk > 1 {
					chunk /= 2
					logger.WarnCtx(ctx, "Log query range too large, halving chunk size",
						zap.String("asset_type", string(w.config.AssetType)),
						zap.Uint64("chunk_size", chunk))
					continue
				}

				// Already at the single-block floor, so the provider is
				// rejecting the smallest possible span. Pace the retries
				// instead of spinning against it.
				logger.WarnCtx(ctx, "Log query rejected at minimum chunk size, retrying",
					zap.String("asset_type", string(w.config.AssetType)),
					zap.Uint64("from", from))
				w.clock.Sleep(w.config.ReconnectDelay)
				if err := ctx.Err(); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("failed to fetch events [%d, %d]: %w", from, from+chunk, err)
		}

		// Providers may return events out of order within a batch; enqueue in
		// ascending (blockNumber, logIndex) order so checkpoint advancement
		// never skips a slower-arriving earlier event
		sort.Slice(events, func(i, j int) bool {
			if events[i].BlockNumber != events[j].BlockNumber {
				return events[i].BlockNumber < events[j].BlockNumber
			}
			return events[i].LogIndex < events[j].LogIndex
		})

		for i := range events {
			if err := w.enqueue(ctx, &events[i]); err != nil {
				return fmt.Errorf("failed to enqueue event %s: %w", events[i].DedupKey(), err)
			}
		}

		// Advancing by exactly the chunk revisits the boundary block; the
		// dedup window and idempotent projection make that harmless, while a
		// gap would not be
		from += chunk

		// Re-read the height: new blocks may have arrived during the loop.
		// The checkpoint never races ahead of confirmed height.
		to, err = w.currentHeight(ctx)
		if err != nil {
			return err
		}

		if err := w.setCheckpoint(ctx, min(from, to)); err != nil {
			return err
		}
	}

	logger.InfoCtx(ctx, "Fetching of previous events completed",
		zap.String("asset_type", string(w.config.AssetType)),
		zap.Uint64("current_block", to))

	return nil
}

// live consumes the contract's Transfer push stream, enqueuing each event and
// checkpointing at its block number. Returns when the transport drops or the
// context is canceled.
func (w *watcher) live(ctx context.Context) error {
	return w.chain.SubscribeTransfers(ctx, w.config.AssetType, w.config.Contract, func(event *domain.TransferEvent) error {
		logger.InfoCtx(ctx, "Transfer",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.String("from", event.From),
			zap.String("to", event.To),
			zap.String("token_id", event.TokenID))

		if err := w.enqueue(ctx, event); err != nil {
			return err
		}

		return w.setCheckpoint(ctx, event.BlockNumber)
	})
}

// startBlock resolves the first block of a backfill pass
func (w *watcher) startBlock(ctx context.Context) (uint64, error) {
	checkpoint, err := w.checkpoints.GetBlockCheckpoint(ctx, w.config.AssetType)
	if err != nil {
		return 0, err
	}

	if checkpoint == 0 {
		checkpoint = w.config.DeployBlock
		logger.InfoCtx(ctx, "No checkpoint found, starting from deploy block",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.Uint64("block", checkpoint))
	} else {
		logger.InfoCtx(ctx, "Resuming from checkpoint",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.Uint64("block", checkpoint))
	}

	if checkpoint > w.lastCheckpoint {
		w.lastCheckpoint = checkpoint
	}

	return checkpoint, nil
}

// enqueue publishes the event's job, retrying transient queue failures with
// exponential backoff. Returns only after the broker acknowledged the job (or
// deduplicated it), which is what makes the subsequent checkpoint write safe.
func (w *watcher) enqueue(ctx context.Context, event *domain.TransferEvent) error {
	job := domain.NewTransferJob(event)

	return w.retry(ctx, "enqueue", func() error {
		return w.publisher.PublishJob(ctx, job)
	})
}

// currentHeight reads the chain height, retrying with backoff on RPC failure
func (w *watcher) currentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := w.retry(ctx, "current height", func() error {
		h, err := w.chain.CurrentHeight(ctx)
		if err != nil {
			return err
		}
		height = h
		return nil
	})

	return height, err
}

// setCheckpoint persists a new checkpoint, enforcing monotonicity: a smaller
// block number than the current high-water mark is never written
func (w *watcher) setCheckpoint(ctx context.Context, blockNumber uint64) error {
	if blockNumber <= w.lastCheckpoint {
		return nil
	}

	err := w.retry(ctx, "set checkpoint", func() error {
		return w.checkpoints.SetBlockCheckpoint(ctx, w.config.AssetType, blockNumber)
	})
	if err != nil {
		return err
	}

	w.lastCheckpoint = blockNumber
	return nil
}

// retry runs op with capped exponential backoff; an unresponsive dependency
// degrades the watcher to repeated backoff, never a crash loop
func (w *watcher) retry(ctx context.Context, name string, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = w.config.RetryMaxElapsed

	return backoff.RetryNotify(op, backoff.WithContext(bo, ctx), func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Watcher operation failed, backing off",
			zap.String("asset_type", string(w.config.AssetType)),
			zap.String("operation", name),
			zap.Duration("next_retry_in", next),
			zap.Error(err))
	})
}

func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
