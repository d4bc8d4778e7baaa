package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// DeadLetterJob represents the dead_letter_jobs table - jobs that exhausted
// their retries or were structurally invalid, held for operator triage rather
// than silently dropped.
type DeadLetterJob struct {
	// ID is the row identifier
	ID uuid.UUID `gorm:"column:id;primaryKey;type:uuid"`
	// AssetType identifies the pipeline the job belonged to
	AssetType domain.AssetType `gorm:"column:asset_type;not null;type:text;index:idx_dead_letter_asset_type"`
	// Subject is the queue subject the job was consumed from
	Subject string `gorm:"column:subject;not null;type:text"`
	// Payload is the raw job body as received from the queue
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb"`
	// Reason describes why the job was dead-lettered
	Reason string `gorm:"column:reason;not null;type:text"`
	// Deliveries is how many times the queue delivered the job before giving up
	Deliveries uint64 `gorm:"column:deliveries;not null;default:0"`
	// CreatedAt is the timestamp the job was dead-lettered
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the DeadLetterJob model
func (DeadLetterJob) TableName() string {
	return "dead_letter_jobs"
}
