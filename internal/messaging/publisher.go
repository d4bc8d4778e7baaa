package messaging

import (
	"context"

	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
)

// Publisher defines the interface for enqueuing jobs onto the event queue.
// PublishJob must be durable: it returns only after the broker acknowledged
// the message, so the Watcher can safely advance its checkpoint afterwards.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishJob enqueues a job, deduplicated by job.DedupKey() within the
	// queue's dedup window; re-publishing a duplicate is a successful no-op
	PublishJob(ctx context.Context, job *domain.Job) error
	// Close closes the connection
	Close()
	// CloseChan returns a channel that is closed when the publisher is closed
	CloseChan() <-chan struct{}
}
