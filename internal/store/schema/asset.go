package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// Asset represents the assets table - the projected read model for one NFT.
// Mutated only by the projector through Create/Transfer jobs; the explorer
// read API increments Views out of band.
type Asset struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AssetType identifies the contract family (avatar, item, gem)
	AssetType domain.AssetType `gorm:"column:asset_type;not null;type:text;uniqueIndex:uq_assets_type_token,priority:1"`
	// TokenID is the token ID within the contract (string to support uint256)
	TokenID string `gorm:"column:token_id;not null;type:text;uniqueIndex:uq_assets_type_token,priority:2"`
	// Owner is the current owner's address
	Owner string `gorm:"column:owner;not null;type:text;index:idx_assets_owner"`
	// Owners is the full holder history including the current owner
	Owners datatypes.JSON `gorm:"column:owners;not null;type:jsonb"`
	// Views counts explorer page views (maintained by the read API)
	Views int64 `gorm:"column:views;not null;default:0"`
	// LegacyUsageCount is the denormalized legacy usage counter, used for
	// popularity sorting only; the legacy contract remains authoritative
	LegacyUsageCount uint64 `gorm:"column:legacy_usage_count;not null;default:0"`
	// CreatedAt is the timestamp when the mint was projected
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last projection write
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}
