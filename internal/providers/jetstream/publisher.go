package jetstream

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/messaging"
)

// Config holds the configuration for NATS JetStream connection
type Config struct {
	URL            string
	StreamName     string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	// DedupWindow is the JetStream duplicates window for msg-id based
	// deduplication; re-delivered events inside the window are dropped by the
	// broker
	DedupWindow time.Duration
	// MaxAge bounds retention of acknowledged jobs in the stream
	MaxAge time.Duration
}

type publisher struct {
	nc         adapter.NatsConn
	js         adapter.JetStream
	streamName string
	json       adapter.JSON
	closeCh    chan struct{}
}

// Subject returns the queue subject for an asset type and job kind.
// Format: assets.{asset_type}.{kind}, e.g. assets.avatar.create-asset
func Subject(assetType domain.AssetType, kind domain.JobKind) string {
	return fmt.Sprintf("assets.%s.%s", assetType, kind)
}

// SubjectFilter returns the consumer filter subject covering every job kind
// for an asset type
func SubjectFilter(assetType domain.AssetType) string {
	return fmt.Sprintf("assets.%s.>", assetType)
}

// NewPublisher creates a new NATS JetStream publisher and ensures the stream
// exists with the configured dedup window and retention
func NewPublisher(ctx context.Context, cfg Config, natsJS adapter.NatsJetStream, jsonAdapter adapter.JSON) (messaging.Publisher, error) {
	closeCh := make(chan struct{})

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Error(err, zap.String("message", "Disconnected from NATS"))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("Reconnected to NATS", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
			close(closeCh)
		}),
	}

	nc, js, err := natsJS.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{"assets.>"},
		Retention:  jetstream.LimitsPolicy,
		Duplicates: cfg.DedupWindow,
		MaxAge:     cfg.MaxAge,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create/update stream: %w", err)
	}

	return &publisher{
		nc:         nc,
		js:         js,
		streamName: cfg.StreamName,
		json:       jsonAdapter,
		closeCh:    closeCh,
	}, nil
}

// PublishJob enqueues a job onto the event queue. The broker deduplicates by
// the job's (tx_hash, log_index) key, which makes Watcher restarts and
// provider re-delivery safe.
func (p *publisher) PublishJob(ctx context.Context, job *domain.Job) error {
	logger.Debug("Publishing job", zap.Any("job", job))

	data, err := p.json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	subject := Subject(job.AssetType, job.Kind)

	_, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(job.DedupKey()))
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	return nil
}

// Close closes the NATS connection
func (p *publisher) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}

// CloseChan returns a channel that is closed when the connection closes
func (p *publisher) CloseChan() <-chan struct{} {
	return p.closeCh
}
