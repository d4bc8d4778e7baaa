package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults (20 open, 5 idle,
// 5m lifetime, 10m idle time).
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

func checkpointKey(assetType domain.AssetType) string {
	return fmt.Sprintf("block_checkpoint:%s", assetType)
}

// GetBlockCheckpoint retrieves the last fully processed block number for an asset type
func (s *pgStore) GetBlockCheckpoint(ctx context.Context, assetType domain.AssetType) (uint64, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", checkpointKey(assetType)).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // No checkpoint yet, caller uses the deploy block
		}
		return 0, fmt.Errorf("failed to get block checkpoint: %w", err)
	}

	blockNumber, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse block checkpoint: %w", err)
	}

	return blockNumber, nil
}

// SetBlockCheckpoint stores the last fully processed block number for an asset type
func (s *pgStore) SetBlockCheckpoint(ctx context.Context, assetType domain.AssetType, blockNumber uint64) error {
	kv := schema.KeyValueStore{
		Key:   checkpointKey(assetType),
		Value: strconv.FormatUint(blockNumber, 10),
	}

	if err := s.db.WithContext(ctx).Save(&kv).Error; err != nil {
		return fmt.Errorf("failed to set block checkpoint: %w", err)
	}

	return nil
}

// ApplyMint projects a mint event into the read model and ledger
func (s *pgStore) ApplyMint(ctx context.Context, event *domain.TransferEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := ledgerRowExists(tx, event)
		if err != nil {
			return err
		}
		if applied {
			return domain.ErrDuplicateEvent
		}

		owners, err := json.Marshal([]string{event.To})
		if err != nil {
			return fmt.Errorf("failed to marshal owners: %w", err)
		}

		// Create-if-absent: a re-delivered mint outside the ledger guard (or a
		// transfer projected first) must not reset views or the holder history
		var asset schema.Asset
		err = tx.Where("asset_type = ? AND token_id = ?", event.AssetType, event.TokenID).
			Attrs(schema.Asset{
				AssetType: event.AssetType,
				TokenID:   event.TokenID,
				Owner:     event.To,
				Owners:    owners,
				Views:     0,
			}).
			FirstOrCreate(&asset).Error
		if err != nil {
			return fmt.Errorf("failed to create asset: %w", err)
		}

		return appendLedgerRow(tx, event, domain.ETHEREUM_ZERO_ADDRESS)
	})
}

// ApplyTransfer projects a transfer event into the read model and ledger
func (s *pgStore) ApplyTransfer(ctx context.Context, event *domain.TransferEvent) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := ledgerRowExists(tx, event)
		if err != nil {
			return err
		}
		if applied {
			return domain.ErrDuplicateEvent
		}

		var asset schema.Asset
		err = tx.Where("asset_type = ? AND token_id = ?", event.AssetType, event.TokenID).First(&asset).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Transfer observed before the mint was projected; create the
			// record lazily with what we know
			owners, mErr := json.Marshal([]string{event.To})
			if mErr != nil {
				return fmt.Errorf("failed to marshal owners: %w", mErr)
			}
			asset = schema.Asset{
				AssetType: event.AssetType,
				TokenID:   event.TokenID,
				Owner:     event.To,
				Owners:    owners,
			}
			if cErr := tx.Create(&asset).Error; cErr != nil {
				return fmt.Errorf("failed to create asset: %w", cErr)
			}
		case err != nil:
			return fmt.Errorf("failed to load asset: %w", err)
		default:
			var owners []string
			if uErr := json.Unmarshal(asset.Owners, &owners); uErr != nil {
				return fmt.Errorf("failed to unmarshal owners: %w", uErr)
			}
			owners = append(owners, event.To)
			raw, mErr := json.Marshal(owners)
			if mErr != nil {
				return fmt.Errorf("failed to marshal owners: %w", mErr)
			}

			updates := map[string]interface{}{
				"owner":  event.To,
				"owners": raw,
			}
			if uErr := tx.Model(&asset).Updates(updates).Error; uErr != nil {
				return fmt.Errorf("failed to update asset owner: %w", uErr)
			}
		}

		return appendLedgerRow(tx, event, event.From)
	})
}

// SetLegacyUsage republishes the denormalized legacy usage counter
func (s *pgStore) SetLegacyUsage(ctx context.Context, assetType domain.AssetType, tokenID string, usageCount uint64) error {
	err := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("asset_type = ? AND token_id = ?", assetType, tokenID).
		Update("legacy_usage_count", usageCount).Error
	if err != nil {
		return fmt.Errorf("failed to set legacy usage count: %w", err)
	}

	return nil
}

// InsertDeadLetter records an exhausted or invalid job for operator triage
func (s *pgStore) InsertDeadLetter(ctx context.Context, job *schema.DeadLetterJob) error {
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to insert dead letter job: %w", err)
	}

	return nil
}

// GetAsset retrieves a projected asset record, nil when not found
func (s *pgStore) GetAsset(ctx context.Context, assetType domain.AssetType, tokenID string) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).
		Where("asset_type = ? AND token_id = ?", assetType, tokenID).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	return &asset, nil
}

// ListLedgerEntries retrieves the custody trail for a token in chain order
func (s *pgStore) ListLedgerEntries(ctx context.Context, assetType domain.AssetType, tokenID string) ([]schema.OwnershipLedgerEntry, error) {
	var entries []schema.OwnershipLedgerEntry
	err := s.db.WithContext(ctx).
		Where("asset_type = ? AND token_id = ?", assetType, tokenID).
		Order("block_number ASC, log_index ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	return entries, nil
}

// ledgerRowExists reports whether the event was already projected. The ledger
// is the idempotency source of truth: one row per (asset_type, tx_hash,
// log_index), insert-only.
func ledgerRowExists(tx *gorm.DB, event *domain.TransferEvent) (bool, error) {
	var count int64
	err := tx.Model(&schema.OwnershipLedgerEntry{}).
		Where("asset_type = ? AND tx_hash = ? AND log_index = ?", event.AssetType, event.TxHash, event.LogIndex).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ledger entry: %w", err)
	}

	return count > 0, nil
}

func appendLedgerRow(tx *gorm.DB, event *domain.TransferEvent, from string) error {
	entry := schema.OwnershipLedgerEntry{
		AssetType:   event.AssetType,
		TokenID:     event.TokenID,
		FromAddress: from,
		ToAddress:   event.To,
		TxHash:      event.TxHash,
		LogIndex:    event.LogIndex,
		BlockNumber: event.BlockNumber,
	}

	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}
