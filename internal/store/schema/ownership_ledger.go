package schema

import (
	"time"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// OwnershipLedgerEntry represents the ownership_ledger table - the append-only
// custody trail of an asset. Rows are never updated or deleted; the unique
// (asset_type, tx_hash, log_index) index doubles as the projector's
// idempotency guard.
type OwnershipLedgerEntry struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AssetType identifies the contract family the event came from
	AssetType domain.AssetType `gorm:"column:asset_type;not null;type:text;uniqueIndex:uq_ledger_type_tx_log,priority:1;index:idx_ledger_type_token,priority:1"`
	// TokenID is the token the custody change applies to
	TokenID string `gorm:"column:token_id;not null;type:text;index:idx_ledger_type_token,priority:2"`
	// FromAddress is the sender ("0x0...0" for mints)
	FromAddress string `gorm:"column:from_address;not null;type:text"`
	// ToAddress is the recipient
	ToAddress string `gorm:"column:to_address;not null;type:text"`
	// TxHash is the transaction hash of the on-chain event
	TxHash string `gorm:"column:tx_hash;not null;type:text;uniqueIndex:uq_ledger_type_tx_log,priority:2"`
	// LogIndex is the log's position in the block; with TxHash it identifies
	// the event uniquely even when one transaction emits several transfers
	LogIndex uint `gorm:"column:log_index;not null;uniqueIndex:uq_ledger_type_tx_log,priority:3"`
	// BlockNumber is the block the event was recorded in
	BlockNumber uint64 `gorm:"column:block_number;not null"`
	// CreatedAt is the timestamp when this row was projected
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the OwnershipLedgerEntry model
func (OwnershipLedgerEntry) TableName() string {
	return "ownership_ledger"
}
