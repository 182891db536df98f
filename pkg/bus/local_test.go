package bus_test

import (
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
)

func testImage(id string) imagemsg.Image {
	return imagemsg.Image{
		Header:   imagemsg.Header{Stamp: time.Unix(1700000000, 0).UTC(), FrameID: id},
		Height:   1,
		Width:    1,
		Encoding: imagemsg.BGR8,
		Step:     3,
		Data:     []byte{1, 2, 3},
	}
}

type LocalBusTestSuite struct {
	suite.Suite
	bus *bus.Local
}

func (suite *LocalBusTestSuite) SetupTest() {
	suite.bus = bus.NewLocal()
}

func (suite *LocalBusTestSuite) TearDownTest() {
	suite.bus.Close()
}

func (suite *LocalBusTestSuite) TestPublishDeliversInOrder() {
	sub, err := suite.bus.Subscribe("video_frames", 10)
	require.NoError(suite.T(), err)

	pub := suite.bus.Publisher("video_frames")
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(suite.T(), pub.Publish(testImage(id)))
	}

	for _, id := range []string{"a", "b", "c"} {
		msg := <-sub.C()
		assert.Equal(suite.T(), id, msg.Header.FrameID)
	}
	assert.Equal(suite.T(), bus.Stats{Sent: 3}, sub.Stats())
}

func (suite *LocalBusTestSuite) TestFullQueueDropsNewest() {
	sub, err := suite.bus.Subscribe("video_frames", 2)
	require.NoError(suite.T(), err)

	pub := suite.bus.Publisher("video_frames")
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(suite.T(), pub.Publish(testImage(id)))
	}

	assert.Equal(suite.T(), "a", (<-sub.C()).Header.FrameID)
	assert.Equal(suite.T(), "b", (<-sub.C()).Header.FrameID)
	assert.Equal(suite.T(), bus.Stats{Sent: 2, Dropped: 2}, sub.Stats())
}

func (suite *LocalBusTestSuite) TestZeroDepthUsesDefault() {
	sub, err := suite.bus.Subscribe("video_frames", 0)
	require.NoError(suite.T(), err)

	pub := suite.bus.Publisher("video_frames")
	for i := 0; i < bus.DefaultQueueDepth+5; i++ {
		require.NoError(suite.T(), pub.Publish(testImage("x")))
	}

	assert.Equal(suite.T(), bus.Stats{Sent: uint64(bus.DefaultQueueDepth), Dropped: 5}, sub.Stats())
}

func (suite *LocalBusTestSuite) TestPublishWithoutSubscribersSucceeds() {
	is := is.New(suite.T())
	is.NoErr(suite.bus.Publisher("nobody").Publish(testImage("a")))
}

func (suite *LocalBusTestSuite) TestTopicsAreIsolated() {
	frames, err := suite.bus.Subscribe("video_frames", 10)
	require.NoError(suite.T(), err)
	other, err := suite.bus.Subscribe("other", 10)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.bus.Publisher("other").Publish(testImage("a")))

	assert.Len(suite.T(), frames.C(), 0)
	assert.Len(suite.T(), other.C(), 1)
}

func (suite *LocalBusTestSuite) TestCloseSubscriptionClosesChannel() {
	sub, err := suite.bus.Subscribe("video_frames", 10)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, suite.bus.SubscriberCount("video_frames"))

	require.NoError(suite.T(), sub.Close())
	require.NoError(suite.T(), sub.Close())

	_, ok := <-sub.C()
	assert.False(suite.T(), ok)
	assert.Equal(suite.T(), 0, suite.bus.SubscriberCount("video_frames"))
}

func (suite *LocalBusTestSuite) TestClosedBusRejectsPublishAndSubscribe() {
	is := is.New(suite.T())
	sub, err := suite.bus.Subscribe("video_frames", 10)
	is.NoErr(err)

	is.NoErr(suite.bus.Close())

	_, ok := <-sub.C()
	is.True(!ok)
	is.NoErr(sub.Close())

	is.True(errors.Is(suite.bus.Publisher("video_frames").Publish(testImage("a")), bus.ErrClosed))
	_, err = suite.bus.Subscribe("video_frames", 10)
	is.True(errors.Is(err, bus.ErrClosed))
}

func TestLocalBusTestSuite(t *testing.T) {
	suite.Run(t, &LocalBusTestSuite{})
}
