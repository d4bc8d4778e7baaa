package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

// buildMintEvent creates a mint event (transfer from the zero address)
func buildMintEvent(assetType domain.AssetType, tokenID, to string, blockNumber uint64) *domain.TransferEvent {
	return &domain.TransferEvent{
		AssetType:   assetType,
		From:        domain.ETHEREUM_ZERO_ADDRESS,
		To:          to,
		TokenID:     tokenID,
		TxHash:      fmt.Sprintf("0xmint_%s_%s_%d", assetType, tokenID, blockNumber),
		BlockNumber: blockNumber,
		LogIndex:    0,
	}
}

// buildTransferEvent creates a transfer event between two non-zero addresses
func buildTransferEvent(assetType domain.AssetType, tokenID, from, to string, blockNumber uint64, logIndex uint) *domain.TransferEvent {
	return &domain.TransferEvent{
		AssetType:   assetType,
		From:        from,
		To:          to,
		TokenID:     tokenID,
		TxHash:      fmt.Sprintf("0xtransfer_%s_%s_%d", assetType, tokenID, blockNumber),
		BlockNumber: blockNumber,
		LogIndex:    logIndex,
	}
}

func ownersOf(t *testing.T, asset *schema.Asset) []string {
	t.Helper()
	var owners []string
	require.NoError(t, json.Unmarshal(asset.Owners, &owners))
	return owners
}

// =============================================================================
// Tests
// =============================================================================

func testBlockCheckpoint(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing checkpoint returns zero", func(t *testing.T) {
		block, err := store.GetBlockCheckpoint(ctx, domain.AssetTypeAvatar)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), block)
	})

	t.Run("set and get roundtrip", func(t *testing.T) {
		require.NoError(t, store.SetBlockCheckpoint(ctx, domain.AssetTypeAvatar, 5000))

		block, err := store.GetBlockCheckpoint(ctx, domain.AssetTypeAvatar)
		require.NoError(t, err)
		assert.Equal(t, uint64(5000), block)
	})

	t.Run("checkpoints are independent per asset type", func(t *testing.T) {
		require.NoError(t, store.SetBlockCheckpoint(ctx, domain.AssetTypeItem, 1234))
		require.NoError(t, store.SetBlockCheckpoint(ctx, domain.AssetTypeGem, 5678))

		itemBlock, err := store.GetBlockCheckpoint(ctx, domain.AssetTypeItem)
		require.NoError(t, err)
		assert.Equal(t, uint64(1234), itemBlock)

		gemBlock, err := store.GetBlockCheckpoint(ctx, domain.AssetTypeGem)
		require.NoError(t, err)
		assert.Equal(t, uint64(5678), gemBlock)
	})

	t.Run("setting again overwrites", func(t *testing.T) {
		require.NoError(t, store.SetBlockCheckpoint(ctx, domain.AssetTypeAvatar, 6000))

		block, err := store.GetBlockCheckpoint(ctx, domain.AssetTypeAvatar)
		require.NoError(t, err)
		assert.Equal(t, uint64(6000), block)
	})
}

func testApplyMint(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("mint creates asset and ledger row", func(t *testing.T) {
		event := buildMintEvent(domain.AssetTypeAvatar, "42", "0xAAA", 100)
		require.NoError(t, store.ApplyMint(ctx, event))

		asset, err := store.GetAsset(ctx, domain.AssetTypeAvatar, "42")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, "0xAAA", asset.Owner)
		assert.Equal(t, []string{"0xAAA"}, ownersOf(t, asset))
		assert.Equal(t, int64(0), asset.Views)
		assert.Equal(t, uint64(0), asset.LegacyUsageCount)

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeAvatar, "42")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, entries[0].FromAddress)
		assert.Equal(t, "0xAAA", entries[0].ToAddress)
		assert.Equal(t, event.TxHash, entries[0].TxHash)
		assert.Equal(t, uint64(100), entries[0].BlockNumber)
	})

	t.Run("re-delivered mint is rejected without touching the asset", func(t *testing.T) {
		event := buildMintEvent(domain.AssetTypeItem, "7", "0xAAA", 200)
		require.NoError(t, store.ApplyMint(ctx, event))

		err := store.ApplyMint(ctx, event)
		require.ErrorIs(t, err, domain.ErrDuplicateEvent)

		asset, err := store.GetAsset(ctx, domain.AssetTypeItem, "7")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, []string{"0xAAA"}, ownersOf(t, asset))

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeItem, "7")
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("same token id under a different asset type is a separate asset", func(t *testing.T) {
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeAvatar, "9", "0xAAA", 300)))
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeGem, "9", "0xBBB", 301)))

		avatar, err := store.GetAsset(ctx, domain.AssetTypeAvatar, "9")
		require.NoError(t, err)
		require.NotNil(t, avatar)
		assert.Equal(t, "0xAAA", avatar.Owner)

		gem, err := store.GetAsset(ctx, domain.AssetTypeGem, "9")
		require.NoError(t, err)
		require.NotNil(t, gem)
		assert.Equal(t, "0xBBB", gem.Owner)
	})
}

func testApplyTransfer(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("transfer updates owner and appends to holder history", func(t *testing.T) {
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeAvatar, "42", "0xAAA", 100)))

		transfer := buildTransferEvent(domain.AssetTypeAvatar, "42", "0xAAA", "0xBBB", 105, 3)
		require.NoError(t, store.ApplyTransfer(ctx, transfer))

		asset, err := store.GetAsset(ctx, domain.AssetTypeAvatar, "42")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, "0xBBB", asset.Owner)
		assert.Equal(t, []string{"0xAAA", "0xBBB"}, ownersOf(t, asset))

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeAvatar, "42")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, domain.ETHEREUM_ZERO_ADDRESS, entries[0].FromAddress)
		assert.Equal(t, "0xAAA", entries[1].FromAddress)
		assert.Equal(t, "0xBBB", entries[1].ToAddress)
	})

	t.Run("re-delivered transfer does not duplicate the history entry", func(t *testing.T) {
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeItem, "8", "0xAAA", 400)))

		transfer := buildTransferEvent(domain.AssetTypeItem, "8", "0xAAA", "0xBBB", 410, 1)
		require.NoError(t, store.ApplyTransfer(ctx, transfer))

		err := store.ApplyTransfer(ctx, transfer)
		require.ErrorIs(t, err, domain.ErrDuplicateEvent)

		asset, err := store.GetAsset(ctx, domain.AssetTypeItem, "8")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, []string{"0xAAA", "0xBBB"}, ownersOf(t, asset))

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeItem, "8")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("transfer observed before the mint creates the asset lazily", func(t *testing.T) {
		transfer := buildTransferEvent(domain.AssetTypeGem, "77", "0xAAA", "0xBBB", 500, 0)
		require.NoError(t, store.ApplyTransfer(ctx, transfer))

		asset, err := store.GetAsset(ctx, domain.AssetTypeGem, "77")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, "0xBBB", asset.Owner)
		assert.Equal(t, []string{"0xBBB"}, ownersOf(t, asset))

		// A late mint then fills in the ledger without resetting the history
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeGem, "77", "0xAAA", 490)))

		asset, err = store.GetAsset(ctx, domain.AssetTypeGem, "77")
		require.NoError(t, err)
		assert.Equal(t, "0xBBB", asset.Owner)

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeGem, "77")
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("repeated transfers keep every holder in order", func(t *testing.T) {
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeAvatar, "55", "0xAAA", 600)))
		require.NoError(t, store.ApplyTransfer(ctx, buildTransferEvent(domain.AssetTypeAvatar, "55", "0xAAA", "0xBBB", 610, 0)))
		require.NoError(t, store.ApplyTransfer(ctx, buildTransferEvent(domain.AssetTypeAvatar, "55", "0xBBB", "0xCCC", 620, 0)))
		require.NoError(t, store.ApplyTransfer(ctx, buildTransferEvent(domain.AssetTypeAvatar, "55", "0xCCC", "0xAAA", 630, 0)))

		asset, err := store.GetAsset(ctx, domain.AssetTypeAvatar, "55")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, "0xAAA", asset.Owner)
		assert.Equal(t, []string{"0xAAA", "0xBBB", "0xCCC", "0xAAA"}, ownersOf(t, asset))
	})
}

func testSetLegacyUsage(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("updates the counter on an existing asset", func(t *testing.T) {
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeGem, "3", "0xAAA", 700)))

		require.NoError(t, store.SetLegacyUsage(ctx, domain.AssetTypeGem, "3", 12))

		asset, err := store.GetAsset(ctx, domain.AssetTypeGem, "3")
		require.NoError(t, err)
		require.NotNil(t, asset)
		assert.Equal(t, uint64(12), asset.LegacyUsageCount)

		// The counter is absolute, not cumulative
		require.NoError(t, store.SetLegacyUsage(ctx, domain.AssetTypeGem, "3", 5))

		asset, err = store.GetAsset(ctx, domain.AssetTypeGem, "3")
		require.NoError(t, err)
		assert.Equal(t, uint64(5), asset.LegacyUsageCount)
	})

	t.Run("missing asset is not an error", func(t *testing.T) {
		err := store.SetLegacyUsage(ctx, domain.AssetTypeGem, "does-not-exist", 9)
		require.NoError(t, err)
	})
}

func testDeadLetterJobs(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("insert records the failed job", func(t *testing.T) {
		payload, err := json.Marshal(map[string]string{"kind": "transfer-asset"})
		require.NoError(t, err)

		job := &schema.DeadLetterJob{
			ID:         uuid.New(),
			AssetType:  domain.AssetTypeAvatar,
			Subject:    "assets.avatar.transfer-asset",
			Payload:    datatypes.JSON(payload),
			Reason:     "retries exhausted",
			Deliveries: 5,
		}
		require.NoError(t, store.InsertDeadLetter(ctx, job))
	})
}

func testGetAsset(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("missing asset returns nil without error", func(t *testing.T) {
		asset, err := store.GetAsset(ctx, domain.AssetTypeAvatar, "unknown")
		require.NoError(t, err)
		assert.Nil(t, asset)
	})
}

func testListLedgerEntries(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("entries come back in chain order", func(t *testing.T) {
		// Project out of order; the listing must still follow the chain
		require.NoError(t, store.ApplyTransfer(ctx, buildTransferEvent(domain.AssetTypeItem, "21", "0xBBB", "0xCCC", 820, 2)))
		require.NoError(t, store.ApplyMint(ctx, buildMintEvent(domain.AssetTypeItem, "21", "0xAAA", 800)))
		require.NoError(t, store.ApplyTransfer(ctx, buildTransferEvent(domain.AssetTypeItem, "21", "0xAAA", "0xBBB", 810, 5)))

		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeItem, "21")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, uint64(800), entries[0].BlockNumber)
		assert.Equal(t, uint64(810), entries[1].BlockNumber)
		assert.Equal(t, uint64(820), entries[2].BlockNumber)
	})

	t.Run("unknown token returns an empty list", func(t *testing.T) {
		entries, err := store.ListLedgerEntries(ctx, domain.AssetTypeItem, "unknown")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

// RunStoreTests runs the store test suite against a Store implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"BlockCheckpoint", testBlockCheckpoint},
		{"ApplyMint", testApplyMint},
		{"ApplyTransfer", testApplyTransfer},
		{"SetLegacyUsage", testSetLegacyUsage},
		{"DeadLetterJobs", testDeadLetterJobs},
		{"GetAsset", testGetAsset},
		{"ListLedgerEntries", testListLedgerEntries},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
