package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totem-gdn/totem-asset-indexer/internal/adapter"
	"github.com/Totem-gdn/totem-asset-indexer/internal/domain"
	"github.com/Totem-gdn/totem-asset-indexer/internal/logger"
	"github.com/Totem-gdn/totem-asset-indexer/internal/messaging"
	"github.com/Totem-gdn/totem-asset-indexer/internal/mocks"
	"github.com/Totem-gdn/totem-asset-indexer/internal/providers/jetstream"
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

func TestSubject(t *testing.T) {
	assert.Equal(t, "assets.avatar.create-asset", jetstream.Subject(domain.AssetTypeAvatar, domain.JobKindCreate))
	assert.Equal(t, "assets.item.transfer-asset", jetstream.Subject(domain.AssetTypeItem, domain.JobKindTransfer))
	assert.Equal(t, "assets.gem.asset-legacy-update", jetstream.Subject(domain.AssetTypeGem, domain.JobKindLegacyUpdate))
}

func TestSubjectFilter(t *testing.T) {
	assert.Equal(t, "assets.avatar.>", jetstream.SubjectFilter(domain.AssetTypeAvatar))
	assert.Equal(t, "assets.gem.>", jetstream.SubjectFilter(domain.AssetTypeGem))
}

type testPublisherMocks struct {
	ctrl   *gomock.Controller
	natsJS *mocks.MockNatsJetStream
	nc     *mocks.MockNatsConn
	js     *mocks.MockJetStream
}

func setupTestPublisher(t *testing.T) *testPublisherMocks {
	ctrl := gomock.NewController(t)

	return &testPublisherMocks{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		nc:     mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}
}

func testConfig() jetstream.Config {
	return jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "ASSET_EVENTS",
		MaxReconnects:  10,
		ReconnectWait:  2 * time.Second,
		ConnectionName: "test-watcher",
		DedupWindow:    2 * time.Minute,
		MaxAge:         24 * time.Hour,
	}
}

func TestNewPublisher(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	ctx := context.Background()
	cfg := testConfig()

	tm.natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(tm.nc, tm.js, nil)
	tm.js.EXPECT().
		CreateOrUpdateStream(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, streamCfg natsjs.StreamConfig) error {
			assert.Equal(t, "ASSET_EVENTS", streamCfg.Name)
			assert.Equal(t, []string{"assets.>"}, streamCfg.Subjects)
			assert.Equal(t, 2*time.Minute, streamCfg.Duplicates)
			assert.Equal(t, 24*time.Hour, streamCfg.MaxAge)
			return nil
		})

	pub, err := jetstream.NewPublisher(ctx, cfg, tm.natsJS, adapter.NewJSON())
	require.NoError(t, err)
	require.NotNil(t, pub)
}

func TestNewPublisher_ConnectError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("connection refused"))

	pub, err := jetstream.NewPublisher(context.Background(), testConfig(), tm.natsJS, adapter.NewJSON())
	require.Error(t, err)
	assert.Nil(t, pub)
}

func TestNewPublisher_StreamError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	tm.natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(tm.nc, tm.js, nil)
	tm.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		Return(errors.New("stream rejected"))
	tm.nc.EXPECT().Close()

	pub, err := jetstream.NewPublisher(context.Background(), testConfig(), tm.natsJS, adapter.NewJSON())
	require.Error(t, err)
	assert.Nil(t, pub)
}

func newTestPublisher(t *testing.T, tm *testPublisherMocks) messaging.Publisher {
	tm.natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(tm.nc, tm.js, nil)
	tm.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		Return(nil)

	pub, err := jetstream.NewPublisher(context.Background(), testConfig(), tm.natsJS, adapter.NewJSON())
	require.NoError(t, err)
	return pub
}

func TestPublishJob(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	pub := newTestPublisher(t, tm)

	event := &domain.TransferEvent{
		AssetType:   domain.AssetTypeAvatar,
		From:        domain.ETHEREUM_ZERO_ADDRESS,
		To:          "0xAAA",
		TokenID:     "42",
		TxHash:      "0xabc",
		BlockNumber: 100,
		LogIndex:    3,
	}
	job := domain.NewTransferJob(event)

	tm.js.EXPECT().
		Publish(gomock.Any(), "assets.avatar.create-asset", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, _ ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			var published domain.Job
			require.NoError(t, adapter.NewJSON().Unmarshal(data, &published))
			assert.Equal(t, domain.JobKindCreate, published.Kind)
			assert.Equal(t, "42", published.TokenID)
			assert.Equal(t, "0xabc", published.TxHash)
			return &natsjs.PubAck{Stream: "ASSET_EVENTS", Sequence: 1}, nil
		})

	err := pub.PublishJob(context.Background(), job)
	require.NoError(t, err)
}

func TestPublishJob_PublishError(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	pub := newTestPublisher(t, tm)

	tm.js.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("no responders"))

	job := domain.NewLegacyUpdateJob(domain.AssetTypeGem, "7", 12, "0xrec", 2)
	err := pub.PublishJob(context.Background(), job)
	require.Error(t, err)
}

func TestPublisher_Close(t *testing.T) {
	tm := setupTestPublisher(t)
	defer tm.ctrl.Finish()

	pub := newTestPublisher(t, tm)

	tm.nc.EXPECT().Close()
	pub.Close()
}
