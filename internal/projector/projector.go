package projector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store/schema"
)

// Config holds the configuration for the projector
type Config struct {
	URL            string
	StreamName     string
	ConsumerName   string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectionName string
	AckWaitTimeout time.Duration
	// MaxDeliver bounds redeliveries of a failing job; the final failed
	// delivery is recorded in the dead-letter table and terminated
	MaxDeliver int
	// NakDelay spaces out redeliveries after a transient failure
	NakDelay        time.Duration
	WorkerPoolSize  int
	WorkerQueueSize int
}

// Projector consumes asset event jobs from JetStream and applies them to the
// read model. Every handler is idempotent, so redeliveries and duplicate
// events converge to the same state.
type Projector interface {
	// Run starts the projector and blocks until the context is canceled
	Run(ctx context.Context) error
	// Close closes the projector and cleans up resources
	Close()
	// CloseChan signals when the underlying NATS connection is closed
	CloseChan() <-chan struct{}
}

type projector struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	store   store.Store
	json    adapter.JSON
	config  Config
	locks   *tokenLocks
	closeCh chan struct{}
}

// NewProjector creates a new projector connected to NATS
func NewProjector(
	cfg Config,
	natsJS adapter.NatsJetStream,
	st store.Store,
	jsonAdapter adapter.JSON,
) (Projector, error) {
	if cfg.MaxDeliver <= 0 {
		cfg.MaxDeliver = 5
	}
	if cfg.NakDelay <= 0 {
		cfg.NakDelay = 5 * time.Minute
	}
	if cfg.WorkerPoolSize <= 0 {
		cfg.WorkerPoolSize = 20
	}

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

	return &projector{
		nc:      nc,
		js:      js,
		store:   st,
		json:    jsonAdapter,
		config:  cfg,
		locks:   newTokenLocks(),
		closeCh: closeCh,
	}, nil
}

// Run starts consuming asset event jobs
func (p *projector) Run(ctx context.Context) error {
	logger.Info("Starting projector",
		zap.String("stream", p.config.StreamName),
		zap.String("consumer", p.config.ConsumerName))

	consumerConfig := jetstream.ConsumerConfig{
		Durable:       p.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       p.config.AckWaitTimeout,
		MaxDeliver:    p.config.MaxDeliver,
		FilterSubject: "assets.>",
	}

	consumer, err := p.js.CreateOrUpdateConsumer(ctx, p.config.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	consumerInfo, err := consumer.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get consumer info: %w", err)
	}
	logger.Info("Consumer created/retrieved", zap.String("consumer", consumerInfo.Name))

	pool := pond.NewPool(
		p.config.WorkerPoolSize,
		pond.WithQueueSize(p.config.WorkerQueueSize),
		pond.WithContext(ctx),
	)

	consumeCtx, err := consumer.Consume(func(msg adapter.Message) {
		pool.Submit(func() {
			p.handleMessage(ctx, msg)
		})
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer consumeCtx.Stop()

	logger.Info("Started consuming messages")

	<-ctx.Done()
	logger.Info("Shutting down projector")
	pool.StopAndWait()

	return ctx.Err()
}

// handleMessage processes a single job message and decides its fate:
// Ack on success or duplicate, NakWithDelay on transient failure, Term plus a
// dead-letter record for malformed payloads and exhausted retries
func (p *projector) handleMessage(ctx context.Context, msg adapter.Message) {
	metadata, _ := msg.Metadata()

	var job domain.Job
	if err := p.json.Unmarshal(msg.Data(), &job); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("%w: %v", domain.ErrInvalidJobPayload, err),
			zap.String("message", "Failed to unmarshal job"),
			zap.String("subject", msg.Subject()))
		p.deadLetter(ctx, msg, &job, "unparseable payload", metadata)
		p.terminate(ctx, msg)
		return
	}

	if !job.Valid() {
		logger.ErrorCtx(ctx, domain.ErrInvalidJobPayload,
			zap.String("message", "Job failed validation"),
			zap.String("subject", msg.Subject()),
			zap.String("kind", string(job.Kind)))
		p.deadLetter(ctx, msg, &job, "invalid payload", metadata)
		p.terminate(ctx, msg)
		return
	}

	var deliveries uint64
	if metadata != nil {
		deliveries = metadata.NumDelivered
	}

	logger.InfoCtx(ctx, "Received job",
		zap.String("kind", string(job.Kind)),
		zap.String("asset_type", string(job.AssetType)),
		zap.String("token_id", job.TokenID),
		zap.String("tx_hash", job.TxHash),
		zap.Uint64("delivery_count", deliveries))

	if err := p.apply(ctx, &job); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to apply job"),
			zap.String("kind", string(job.Kind)),
			zap.String("token_id", job.TokenID),
			zap.Uint64("delivery_count", deliveries))

		// Exhausted deliveries go to the dead-letter table so they survive
		// the stream's retention window for operator inspection
		if deliveries >= uint64(p.config.MaxDeliver) {
			p.deadLetter(ctx, msg, &job, err.Error(), metadata)
			p.terminate(ctx, msg)
			return
		}

		if err := msg.NakWithDelay(p.config.NakDelay); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("message", "Failed to NAK message"))
		}
		return
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to ACK message"))
	}
}

// apply routes a job to its store operation. Jobs for the same token are
// serialized so concurrent workers cannot interleave ledger appends.
func (p *projector) apply(ctx context.Context, job *domain.Job) error {
	lock := p.locks.lockFor(job.AssetType, job.TokenID)
	lock.Lock()
	defer lock.Unlock()

	var err error
	switch job.Kind {
	case domain.JobKindCreate:
		err = p.store.ApplyMint(ctx, job.Event())
	case domain.JobKindTransfer:
		err = p.store.ApplyTransfer(ctx, job.Event())
	case domain.JobKindLegacyUpdate:
		err = p.store.SetLegacyUsage(ctx, job.AssetType, job.TokenID, job.UsageCount)
	default:
		// Valid() already filters unknown kinds; kept for safety
		return fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidJobPayload, job.Kind)
	}

	// An already-recorded event is a success: the read model holds the result
	if errors.Is(err, domain.ErrDuplicateEvent) {
		logger.InfoCtx(ctx, "Skipping duplicate event",
			zap.String("asset_type", string(job.AssetType)),
			zap.String("dedup_key", job.DedupKey()))
		return nil
	}

	return err
}

// deadLetter records the failed job in the dead-letter table. A failed insert
// is logged but never blocks the Term: losing a dead-letter row is preferable
// to a poison message cycling forever.
func (p *projector) deadLetter(ctx context.Context, msg adapter.Message, job *domain.Job, reason string, metadata *jetstream.MsgMetadata) {
	var deliveries uint64
	if metadata != nil {
		deliveries = metadata.NumDelivered
	}

	// The payload column is jsonb; garbage that failed to parse is stored as
	// a JSON string so the insert cannot be rejected
	payload := msg.Data()
	if !json.Valid(payload) {
		payload, _ = json.Marshal(string(payload))
	}

	entry := &schema.DeadLetterJob{
		ID:         uuid.New(),
		AssetType:  job.AssetType,
		Subject:    msg.Subject(),
		Payload:    datatypes.JSON(payload),
		Reason:     reason,
		Deliveries: deliveries,
	}

	if err := p.store.InsertDeadLetter(ctx, entry); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "Failed to record dead-letter job"),
			zap.String("subject", msg.Subject()))
	}
}

func (p *projector) terminate(ctx context.Context, msg adapter.Message) {
	if err := msg.Term(); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("message", "Failed to terminate message"))
	}
}

// Close closes the projector and cleans up resources
func (p *projector) Close() {
	if p.nc == nil {
		return
	}

	p.nc.Close()
}

// CloseChan signals when the underlying NATS connection is closed
func (p *projector) CloseChan() <-chan struct{} {
	return p.closeCh
}
