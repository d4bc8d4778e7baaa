package store

import (
	"context"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store/schema"
)

// CheckpointStore defines the interface for storing and retrieving block
// checkpoints. One key exists per asset type; a missing key reads as 0 and the
// caller falls back to the contract's deploy block. Monotonicity is enforced
// by the Watcher, not here.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=CheckpointStore=MockCheckpointStore,Store=MockStore
type CheckpointStore interface {
	// GetBlockCheckpoint retrieves the last fully processed block number for
	// an asset type, 0 when no checkpoint exists yet
	GetBlockCheckpoint(ctx context.Context, assetType domain.AssetType) (uint64, error)
	// SetBlockCheckpoint stores the last fully processed block number for an
	// asset type
	SetBlockCheckpoint(ctx context.Context, assetType domain.AssetType, blockNumber uint64) error
}

// Store defines the full persistence interface for the ingestion pipeline
type Store interface {
	CheckpointStore

	// ApplyMint projects a mint event: creates the asset record if absent and
	// appends the ledger row. Returns domain.ErrDuplicateEvent when a ledger
	// row for the event already exists; the caller treats that as success.
	ApplyMint(ctx context.Context, event *domain.TransferEvent) error

	// ApplyTransfer projects a transfer event: updates the current owner,
	// appends to the holder history and appends the ledger row. Returns
	// domain.ErrDuplicateEvent when already applied.
	ApplyTransfer(ctx context.Context, event *domain.TransferEvent) error

	// SetLegacyUsage republishes the denormalized legacy usage counter onto
	// the asset record. A missing asset record is not an error; the counter is
	// non-authoritative and the next legacy event re-delivers it.
	SetLegacyUsage(ctx context.Context, assetType domain.AssetType, tokenID string, usageCount uint64) error

	// InsertDeadLetter records a job that exhausted retries or was
	// structurally invalid
	InsertDeadLetter(ctx context.Context, job *schema.DeadLetterJob) error

	// GetAsset retrieves a projected asset record, nil when not found
	GetAsset(ctx context.Context, assetType domain.AssetType, tokenID string) (*schema.Asset, error)

	// ListLedgerEntries retrieves the custody trail for a token in chain order
	ListLedgerEntries(ctx context.Context, assetType domain.AssetType, tokenID string) ([]schema.OwnershipLedgerEntry, error)
}
