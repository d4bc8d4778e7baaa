package ethereum

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
)

// SubscribeTransfers subscribes to a contract's Transfer topic and dispatches
// parsed events to the handler until the context is canceled or the transport
// drops
func (c *ethereumClient) SubscribeTransfers(ctx context.Context, assetType domain.AssetType, contract string, handler TransferHandler) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contract)},
		Topics:    [][]common.Hash{{transferEventSignature}},
	}

	return c.subscribe(ctx, assetType, query, func(vLog types.Log) error {
		event := parseTransferLog(assetType, vLog)
		if event == nil {
			return nil
		}
		return handler(event)
	})
}

// SubscribeLegacyRecords subscribes to a legacy contract's AssetLegacyRecord
// topic with the same lifecycle as SubscribeTransfers
func (c *ethereumClient) SubscribeLegacyRecords(ctx context.Context, assetType domain.AssetType, contract string, handler LegacyRecordHandler) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contract)},
		Topics:    [][]common.Hash{{legacyRecordEventSignature}},
	}

	return c.subscribe(ctx, assetType, query, func(vLog types.Log) error {
		event := parseLegacyRecordLog(assetType, vLog)
		if event == nil {
			return nil
		}
		return handler(event)
	})
}

func (c *ethereumClient) subscribe(ctx context.Context, assetType domain.AssetType, query ethereum.FilterQuery, handle func(vLog types.Log) error) error {
	logs := make(chan types.Log)
	sub, err := c.ws.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("%w: failed to subscribe to filter logs: %v", domain.ErrChainUnavailable, err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return fmt.Errorf("subscription error: %w", err)
		case vLog := <-logs:
			if err := handle(vLog); err != nil {
				// A failed handler means the pushed event was not durably
				// enqueued; tear the subscription down so the caller closes
				// the gap with a fresh backfill from the checkpoint
				logger.ErrorCtx(ctx, err,
					zap.String("message", "Error handling event"),
					zap.String("asset_type", string(assetType)),
					zap.String("tx_hash", vLog.TxHash.Hex()))
				return fmt.Errorf("failed to handle pushed event: %w", err)
			}
		}
	}
}
