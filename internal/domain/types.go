package domain

import (
	"fmt"
	"strings"
)

// AssetType identifies one of the watched NFT contract families
type AssetType string

const (
	AssetTypeAvatar AssetType = "avatar"
	AssetTypeItem   AssetType = "item"
	AssetTypeGem    AssetType = "gem"
)

// AllAssetTypes lists every watched asset type; a Watcher and a Projector run
// for each entry
var AllAssetTypes = []AssetType{AssetTypeAvatar, AssetTypeItem, AssetTypeGem}

// IsValidAssetType checks if an asset type is part of the closed enumeration
func IsValidAssetType(t AssetType) bool {
	return t == AssetTypeAvatar || t == AssetTypeItem || t == AssetTypeGem
}

// JobKind represents the type of work carried by a queue job
type JobKind string

const (
	JobKindCreate       JobKind = "create-asset"
	JobKindTransfer     JobKind = "transfer-asset"
	JobKindLegacyUpdate JobKind = "asset-legacy-update"
)

// TransferEvent is a normalized ERC-721 Transfer log.
// (TxHash, LogIndex) is globally unique per chain and is used as the
// idempotency key throughout the pipeline.
type TransferEvent struct {
	AssetType   AssetType `json:"asset_type"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	TokenID     string    `json:"token_id"` // decimal string, supports uint256
	TxHash      string    `json:"tx_hash"`
	BlockNumber uint64    `json:"block_number"`
	LogIndex    uint      `json:"log_index"`
}

// IsMint reports whether the event is a mint (transfer from the zero address)
func (e *TransferEvent) IsMint() bool {
	return strings.EqualFold(e.From, ETHEREUM_ZERO_ADDRESS)
}

// DedupKey returns the queue deduplication key for the event. A transaction
// can carry several relevant logs, so the log index is part of the key.
func (e *TransferEvent) DedupKey() string {
	return fmt.Sprintf("%s:%d", e.TxHash, e.LogIndex)
}

// Kind returns the job kind the event maps to
func (e *TransferEvent) Kind() JobKind {
	if e.IsMint() {
		return JobKindCreate
	}
	return JobKindTransfer
}

// Valid reports whether the event carries everything the projector needs
func (e *TransferEvent) Valid() bool {
	return IsValidAssetType(e.AssetType) &&
		e.TokenID != "" &&
		e.TxHash != "" &&
		e.To != ""
}

// Job is the unit of work flowing through the event queue.
// Create/Transfer jobs carry the originating transfer event; LegacyUpdate jobs
// carry the denormalized usage counter read back from the legacy contract.
type Job struct {
	Kind      JobKind   `json:"kind"`
	AssetType AssetType `json:"asset_type"`
	TokenID   string    `json:"token_id"`
	TxHash    string    `json:"tx_hash"`
	LogIndex  uint      `json:"log_index"`

	// Transfer payload (create-asset, transfer-asset)
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`

	// Legacy payload (asset-legacy-update)
	UsageCount uint64 `json:"usage_count,omitempty"`
}

// NewTransferJob builds a Create or Transfer job from a normalized event
func NewTransferJob(event *TransferEvent) *Job {
	return &Job{
		Kind:        event.Kind(),
		AssetType:   event.AssetType,
		TokenID:     event.TokenID,
		TxHash:      event.TxHash,
		LogIndex:    event.LogIndex,
		From:        event.From,
		To:          event.To,
		BlockNumber: event.BlockNumber,
	}
}

// NewLegacyUpdateJob builds an asset-legacy-update job. usageCount is the
// authoritative counter read from the legacy contract at enqueue time.
func NewLegacyUpdateJob(assetType AssetType, tokenID string, usageCount uint64, txHash string, logIndex uint) *Job {
	return &Job{
		Kind:       JobKindLegacyUpdate,
		AssetType:  assetType,
		TokenID:    tokenID,
		TxHash:     txHash,
		LogIndex:   logIndex,
		UsageCount: usageCount,
	}
}

// Event reconstructs the transfer event carried by a Create/Transfer job
func (j *Job) Event() *TransferEvent {
	return &TransferEvent{
		AssetType:   j.AssetType,
		From:        j.From,
		To:          j.To,
		TokenID:     j.TokenID,
		TxHash:      j.TxHash,
		BlockNumber: j.BlockNumber,
		LogIndex:    j.LogIndex,
	}
}

// DedupKey returns the queue deduplication key for the job
func (j *Job) DedupKey() string {
	return fmt.Sprintf("%s:%d", j.TxHash, j.LogIndex)
}

// Valid reports whether the job is structurally sound. Invalid jobs are routed
// to the dead-letter table without retrying.
func (j *Job) Valid() bool {
	if !IsValidAssetType(j.AssetType) || j.TokenID == "" || j.TxHash == "" {
		return false
	}

	switch j.Kind {
	case JobKindCreate, JobKindTransfer:
		return j.To != ""
	case JobKindLegacyUpdate:
		return true
	default:
		return false
	}
}
