package projector_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/mocks"
	"github.com/Totem-gdn/totem-asset-indexer/internal/projector"
	"github.com/Totem-gdn/totem-asset-indexer/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testProjectorMocks struct {
	ctrl       *gomock.Controller
	natsJS     *mocks.MockNatsJetStream
	nc         *mocks.MockNatsConn
	js         *mocks.MockJetStream
	consumer   *mocks.MockNatsConsumer
	consumeCtx *mocks.MockConsumeContext
	store      *mocks.MockStore
	msg        *mocks.MockJetStreamMessage
}

func setupTestProjector(t *testing.T) *testProjectorMocks {
	ctrl := gomock.NewController(t)

	tm := &testProjectorMocks{
		ctrl:       ctrl,
		natsJS:     mocks.NewMockNatsJetStream(ctrl),
		nc:         mocks.NewMockNatsConn(ctrl),
		js:         mocks.NewMockJetStream(ctrl),
		consumer:   mocks.NewMockNatsConsumer(ctrl),
		consumeCtx: mocks.NewMockConsumeContext(ctrl),
		store:      mocks.NewMockStore(ctrl),
		msg:        mocks.NewMockJetStreamMessage(ctrl),
	}

	tm.natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(tm.nc, tm.js, nil)

	return tm
}

// message primes the mock message with a payload and delivery count
func (tm *testProjectorMocks) message(t *testing.T, payload []byte, deliveries uint64) {
	tm.msg.EXPECT().Data().Return(payload).AnyTimes()
	tm.msg.EXPECT().Subject().Return("assets.avatar.create-asset").AnyTimes()
	tm.msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: deliveries}, nil).AnyTimes()
}

// run creates the projector, delivers the primed message once and blocks
// until done is closed by a message-fate expectation
func (tm *testProjectorMocks) run(t *testing.T, done chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tm.js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), "ASSET_EVENTS", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, cfg jetstream.ConsumerConfig) (adapter.Consumer, error) {
			assert.Equal(t, "projector", cfg.Durable)
			assert.Equal(t, jetstream.AckExplicitPolicy, cfg.AckPolicy)
			assert.Equal(t, 5, cfg.MaxDeliver)
			assert.Equal(t, "assets.>", cfg.FilterSubject)
			return tm.consumer, nil
		})
	tm.consumer.EXPECT().Info(gomock.Any()).Return(&jetstream.ConsumerInfo{Name: "projector"}, nil)
	tm.consumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			handler(tm.msg)
			return tm.consumeCtx, nil
		})
	tm.consumeCtx.EXPECT().Stop()

	proj, err := projector.NewProjector(projector.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "ASSET_EVENTS",
		ConsumerName:   "projector",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		NakDelay:       5 * time.Minute,
	}, tm.natsJS, tm.store, adapter.NewJSON())
	require.NoError(t, err)

	go func() {
		<-done
		cancel()
	}()

	err = proj.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// transferMessage builds a standalone mock message carrying one job, for
// tests that push several messages through the pool at once
func (tm *testProjectorMocks) transferMessage(t *testing.T, job *domain.Job) *mocks.MockJetStreamMessage {
	msg := mocks.NewMockJetStreamMessage(tm.ctrl)
	msg.EXPECT().Data().Return(jobPayload(t, job)).AnyTimes()
	msg.EXPECT().Subject().Return("assets.avatar.transfer-asset").AnyTimes()
	msg.EXPECT().Metadata().Return(&jetstream.MsgMetadata{NumDelivered: 1}, nil).AnyTimes()
	return msg
}

// runMessages is run for a batch: every message is handed to the consume
// callback, so the worker pool processes them concurrently
func (tm *testProjectorMocks) runMessages(t *testing.T, msgs []*mocks.MockJetStreamMessage, done chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tm.js.EXPECT().
		CreateOrUpdateConsumer(gomock.Any(), "ASSET_EVENTS", gomock.Any()).
		Return(tm.consumer, nil)
	tm.consumer.EXPECT().Info(gomock.Any()).Return(&jetstream.ConsumerInfo{Name: "projector"}, nil)
	tm.consumer.EXPECT().
		Consume(gomock.Any()).
		DoAndReturn(func(handler adapter.MessageHandler, _ ...jetstream.PullConsumeOpt) (adapter.ConsumeContext, error) {
			for _, msg := range msgs {
				handler(msg)
			}
			return tm.consumeCtx, nil
		})
	tm.consumeCtx.EXPECT().Stop()

	proj, err := projector.NewProjector(projector.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "ASSET_EVENTS",
		ConsumerName:   "projector",
		AckWaitTimeout: 30 * time.Second,
		MaxDeliver:     5,
		NakDelay:       5 * time.Minute,
	}, tm.natsJS, tm.store, adapter.NewJSON())
	require.NoError(t, err)

	go func() {
		<-done
		cancel()
	}()

	err = proj.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func jobPayload(t *testing.T, job *domain.Job) []byte {
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return data
}

func createJob() *domain.Job {
	return domain.NewTransferJob(&domain.TransferEvent{
		AssetType:   domain.AssetTypeAvatar,
		From:        domain.ETHEREUM_ZERO_ADDRESS,
		To:          "0xAAA",
		TokenID:     "42",
		TxHash:      "0xmint",
		BlockNumber: 100,
		LogIndex:    0,
	})
}

func transferJob() *domain.Job {
	return domain.NewTransferJob(&domain.TransferEvent{
		AssetType:   domain.AssetTypeAvatar,
		From:        "0xAAA",
		To:          "0xBBB",
		TokenID:     "42",
		TxHash:      "0xtransfer",
		BlockNumber: 105,
		LogIndex:    1,
	})
}

func TestProjector_AppliesCreateJob(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := createJob()
	tm.message(t, jobPayload(t, job), 1)

	done := make(chan struct{})

	tm.store.EXPECT().
		ApplyMint(gomock.Any(), job.Event()).
		Return(nil)
	tm.msg.EXPECT().Ack().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_AppliesTransferJob(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := transferJob()
	tm.message(t, jobPayload(t, job), 1)

	done := make(chan struct{})

	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), job.Event()).
		Return(nil)
	tm.msg.EXPECT().Ack().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_AppliesLegacyUpdateJob(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := domain.NewLegacyUpdateJob(domain.AssetTypeGem, "7", 12, "0xrec", 2)
	tm.message(t, jobPayload(t, job), 1)

	done := make(chan struct{})

	tm.store.EXPECT().
		SetLegacyUsage(gomock.Any(), domain.AssetTypeGem, "7", uint64(12)).
		Return(nil)
	tm.msg.EXPECT().Ack().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_DuplicateEventIsAcked(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := transferJob()
	tm.message(t, jobPayload(t, job), 2)

	done := make(chan struct{})

	// A duplicate is a success: the read model already holds the result
	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), gomock.Any()).
		Return(domain.ErrDuplicateEvent)
	tm.msg.EXPECT().Ack().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_TransientFailureIsNaked(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := transferJob()
	tm.message(t, jobPayload(t, job), 1)

	done := make(chan struct{})

	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), gomock.Any()).
		Return(errors.New("database unavailable"))
	tm.msg.EXPECT().NakWithDelay(5 * time.Minute).DoAndReturn(func(time.Duration) error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_ExhaustedRetriesAreDeadLettered(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	job := transferJob()
	tm.message(t, jobPayload(t, job), 5)

	done := make(chan struct{})

	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), gomock.Any()).
		Return(errors.New("database unavailable"))
	tm.store.EXPECT().
		InsertDeadLetter(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *schema.DeadLetterJob) error {
			assert.Equal(t, domain.AssetTypeAvatar, entry.AssetType)
			assert.Equal(t, uint64(5), entry.Deliveries)
			assert.NotEmpty(t, entry.Reason)
			return nil
		})
	tm.msg.EXPECT().Term().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_UnparseablePayloadIsDeadLettered(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	tm.message(t, []byte("not json"), 1)

	done := make(chan struct{})

	// Garbage is never retried; it goes straight to the dead-letter table
	tm.store.EXPECT().
		InsertDeadLetter(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *schema.DeadLetterJob) error {
			assert.Equal(t, "unparseable payload", entry.Reason)
			// Payload is preserved, wrapped as a JSON string
			assert.True(t, json.Valid(entry.Payload))
			return nil
		})
	tm.msg.EXPECT().Term().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_InvalidJobIsDeadLettered(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	// Parseable but structurally invalid: transfer without a recipient
	job := &domain.Job{
		Kind:      domain.JobKindTransfer,
		AssetType: domain.AssetTypeAvatar,
		TokenID:   "42",
		TxHash:    "0xtransfer",
	}
	tm.message(t, jobPayload(t, job), 1)

	done := make(chan struct{})

	tm.store.EXPECT().
		InsertDeadLetter(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry *schema.DeadLetterJob) error {
			assert.Equal(t, "invalid payload", entry.Reason)
			return nil
		})
	tm.msg.EXPECT().Term().DoAndReturn(func() error {
		close(done)
		return nil
	})

	tm.run(t, done)
}

func TestProjector_SerializesJobsForSameToken(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	const jobCount = 8

	done := make(chan struct{})

	var acked int32
	msgs := make([]*mocks.MockJetStreamMessage, 0, jobCount)
	for i := 0; i < jobCount; i++ {
		job := domain.NewTransferJob(&domain.TransferEvent{
			AssetType:   domain.AssetTypeAvatar,
			From:        "0xAAA",
			To:          "0xBBB",
			TokenID:     "42",
			TxHash:      fmt.Sprintf("0xtransfer%d", i),
			BlockNumber: uint64(100 + i),
			LogIndex:    uint(i),
		})

		msg := tm.transferMessage(t, job)
		msg.EXPECT().Ack().DoAndReturn(func() error {
			if atomic.AddInt32(&acked, 1) == jobCount {
				close(done)
			}
			return nil
		})
		msgs = append(msgs, msg)
	}

	// Applies for one token must never overlap, whichever workers pick the
	// jobs up
	var inFlight int32
	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *domain.TransferEvent) error {
			if n := atomic.AddInt32(&inFlight, 1); n > 1 {
				t.Errorf("%d concurrent applies for the same token", n)
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}).
		Times(jobCount)

	tm.runMessages(t, msgs, done)
}

func TestProjector_DistinctTokensApplyConcurrently(t *testing.T) {
	tm := setupTestProjector(t)
	defer tm.ctrl.Finish()

	done := make(chan struct{})
	secondStarted := make(chan struct{})

	first := domain.NewTransferJob(&domain.TransferEvent{
		AssetType:   domain.AssetTypeAvatar,
		From:        "0xAAA",
		To:          "0xBBB",
		TokenID:     "42",
		TxHash:      "0xfirst",
		BlockNumber: 100,
		LogIndex:    0,
	})
	second := domain.NewTransferJob(&domain.TransferEvent{
		AssetType:   domain.AssetTypeAvatar,
		From:        "0xBBB",
		To:          "0xCCC",
		TokenID:     "7",
		TxHash:      "0xsecond",
		BlockNumber: 101,
		LogIndex:    0,
	})

	var acked int32
	ack := func() error {
		if atomic.AddInt32(&acked, 1) == 2 {
			close(done)
		}
		return nil
	}

	firstMsg := tm.transferMessage(t, first)
	firstMsg.EXPECT().Ack().DoAndReturn(ack)
	secondMsg := tm.transferMessage(t, second)
	secondMsg.EXPECT().Ack().DoAndReturn(ack)

	// The first token's apply holds its lock until the second token's apply
	// has begun; if the tokens were serialized against each other this would
	// never happen
	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), first.Event()).
		DoAndReturn(func(context.Context, *domain.TransferEvent) error {
			select {
			case <-secondStarted:
			case <-time.After(2 * time.Second):
				t.Error("apply for a different token was blocked")
			}
			return nil
		})
	tm.store.EXPECT().
		ApplyTransfer(gomock.Any(), second.Event()).
		DoAndReturn(func(context.Context, *domain.TransferEvent) error {
			close(secondStarted)
			return nil
		})

	tm.runMessages(t, []*mocks.MockJetStreamMessage{firstMsg, secondMsg}, done)
}

func TestProjector_Close(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	st := mocks.NewMockStore(ctrl)

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, js, nil)
	nc.EXPECT().Close()

	proj, err := projector.NewProjector(projector.Config{
		URL: "nats://localhost:4222",
	}, natsJS, st, adapter.NewJSON())
	require.NoError(t, err)

	proj.Close()
}
