package relay_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/framerelay/pkg/node"
	"github.com/tauraamui/framerelay/pkg/relay"
	"github.com/tauraamui/framerelay/pkg/video/videobackend"
)

type logRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *logRecorder) record(format string, a ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, a...))
}

func (r *logRecorder) contains(substr string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, line := range r.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func overloadLogs(info, errs *logRecorder) func() {
	logInfoRef, logErrorRef := log.Info, log.Error
	log.Info, log.Error = info.record, errs.record
	return func() {
		log.Info = logInfoRef
		log.Error = logErrorRef
	}
}

func spin(t *testing.T, n *node.Node) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- n.Spin(context.Background()) }()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		require.FailNow(t, "node did not stop spinning")
	}
	return nil
}

type VideoPublisherTestSuite struct {
	suite.Suite
	bus           *bus.Local
	sub           *bus.LocalSubscription
	infoLogs      *logRecorder
	errorLogs     *logRecorder
	resetLogs     func()
	resetLogLevel func()
}

func (suite *VideoPublisherTestSuite) SetupTest() {
	suite.bus = bus.NewLocal()
	sub, err := suite.bus.Subscribe(relay.DefaultTopic, 1000)
	require.NoError(suite.T(), err)
	suite.sub = sub

	suite.infoLogs, suite.errorLogs = &logRecorder{}, &logRecorder{}
	suite.resetLogs = overloadLogs(suite.infoLogs, suite.errorLogs)
	suite.resetLogLevel = log.Silence()
}

func (suite *VideoPublisherTestSuite) TearDownTest() {
	suite.resetLogLevel()
	suite.resetLogs()
	suite.bus.Close()
}

func (suite *VideoPublisherTestSuite) drain() []imagemsg.Image {
	msgs := []imagemsg.Image{}
	for {
		select {
		case msg := <-suite.sub.C():
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func (suite *VideoPublisherTestSuite) TestPublishesEveryFrameThenShutsDown() {
	n := node.New("video_publisher")
	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:           suite.bus,
		VideoPath:     "mock://60",
		FrameID:       "camera",
		FrameInterval: time.Millisecond,
	})
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), spin(suite.T(), n))

	msgs := suite.drain()
	assert.Len(suite.T(), msgs, 60)
	assert.Equal(suite.T(), 60, pub.Published())
	assert.True(suite.T(), n.ShutdownRequested())
	assert.True(suite.T(), suite.infoLogs.contains("End of video reached."))

	for i, msg := range msgs {
		assert.Equal(suite.T(), imagemsg.BGR8, msg.Encoding)
		assert.Equal(suite.T(), "camera", msg.Header.FrameID)
		assert.Equal(suite.T(), msg.Width*3, msg.Step)
		if i > 0 {
			assert.False(suite.T(), msg.Header.Stamp.Before(msgs[i-1].Header.Stamp))
		}
	}
}

func (suite *VideoPublisherTestSuite) TestUnopenableVideoPublishesNothing() {
	is := is.New(suite.T())
	n := node.New("video_publisher")

	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:       suite.bus,
		VideoPath: "/does/not/exist.mp4",
	})
	is.True(err != nil)
	is.True(pub == nil)
	is.True(n.ShutdownRequested())
	is.True(suite.errorLogs.contains("Could not open video file."))

	is.NoErr(spin(suite.T(), n))
	is.Equal(len(suite.drain()), 0)
}

func (suite *VideoPublisherTestSuite) TestEmptyVideoShutsDownOnFirstTick() {
	is := is.New(suite.T())
	n := node.New("video_publisher")

	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:           suite.bus,
		VideoPath:     "mock://0",
		FrameInterval: time.Millisecond,
	})
	is.NoErr(err)

	is.NoErr(spin(suite.T(), n))
	is.Equal(pub.Published(), 0)
	is.Equal(len(suite.drain()), 0)
	is.True(suite.infoLogs.contains("End of video reached."))
}

func (suite *VideoPublisherTestSuite) TestClosedBusStopsPublisher() {
	is := is.New(suite.T())
	n := node.New("video_publisher")

	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:           suite.bus,
		VideoPath:     "mock://",
		FrameInterval: time.Millisecond,
	})
	is.NoErr(err)
	is.NoErr(suite.bus.Close())

	is.NoErr(spin(suite.T(), n))
	is.Equal(pub.Published(), 0)
	pub.Close()
}

func (suite *VideoPublisherTestSuite) TestDefaultsTopicAndFrameInterval() {
	is := is.New(suite.T())
	n := node.New("video_publisher")

	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:       suite.bus,
		VideoPath: "mock://1",
	})
	is.NoErr(err)
	defer pub.Close()

	is.Equal(pub.Topic(), "video_frames")
	is.Equal(pub.FrameInterval(), 33*time.Millisecond)

	is.NoErr(spin(suite.T(), n))
	is.Equal(len(suite.drain()), 1)
}

func (suite *VideoPublisherTestSuite) TestKeepsConfiguredTopicAndFrameInterval() {
	is := is.New(suite.T())
	n := node.New("video_publisher")
	sub, err := suite.bus.Subscribe("camera_frames", 10)
	is.NoErr(err)
	defer sub.Close()

	pub, err := relay.NewVideoPublisher(n, videobackend.Mock(), relay.PublisherSettings{
		Bus:           suite.bus,
		Topic:         "camera_frames",
		VideoPath:     "mock://1",
		FrameInterval: 2 * time.Millisecond,
	})
	is.NoErr(err)
	defer pub.Close()

	is.Equal(pub.Topic(), "camera_frames")
	is.Equal(pub.FrameInterval(), 2*time.Millisecond)

	is.NoErr(spin(suite.T(), n))
	is.Equal(len(sub.C()), 1)
	is.Equal(len(suite.drain()), 0)
}

func (suite *VideoPublisherTestSuite) TestRequiresBus() {
	is := is.New(suite.T())
	_, err := relay.NewVideoPublisher(node.New("video_publisher"), videobackend.Mock(), relay.PublisherSettings{
		VideoPath: "mock://1",
	})
	is.Equal(err.Error(), "publisher requires a bus")
}

func TestVideoPublisherTestSuite(t *testing.T) {
	suite.Run(t, &VideoPublisherTestSuite{})
}
