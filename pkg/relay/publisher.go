package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/framerelay/pkg/node"
	"github.com/tauraamui/framerelay/pkg/video/videobackend"
	"github.com/tauraamui/framerelay/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

const (
	DefaultTopic         = "video_frames"
	DefaultFrameInterval = 33 * time.Millisecond
	DefaultSaveInterval  = 5 * time.Second
	DefaultOutputDir     = "saved_frames"
)

// Publishers hands out publishers by topic, *bus.Local is the usual one.
type Publishers interface {
	Publisher(topic string) bus.Publisher
}

type PublisherSettings struct {
	Bus           Publishers
	Topic         string
	VideoPath     string
	FrameID       string
	FrameInterval time.Duration
}

// VideoPublisher decodes one frame per timer tick and publishes it as a bgr8
// image. It shuts its node down once the stream ends.
type VideoPublisher struct {
	n         *node.Node
	conn      videobackend.Connection
	frame     videoframe.Frame
	pub       bus.Publisher
	timer     *node.Timer
	frameID   string
	published int
	closeOnce sync.Once
}

func NewVideoPublisher(n *node.Node, backend videobackend.Backend, settings PublisherSettings) (*VideoPublisher, error) {
	logger := n.Logger()
	if settings.Bus == nil {
		return nil, xerror.New("publisher requires a bus")
	}
	if len(settings.Topic) == 0 {
		settings.Topic = DefaultTopic
	}
	if settings.FrameInterval <= 0 {
		settings.FrameInterval = DefaultFrameInterval
	}

	conn, err := backend.Connect(context.Background(), settings.VideoPath)
	if err != nil {
		logger.Error("Could not open video file.")
		n.Shutdown()
		return nil, xerror.Errorf("unable to open video [%s]: %w", settings.VideoPath, err)
	}

	logger.Debug("Opened video [%s] as connection %s", settings.VideoPath, conn.UUID())
	if fps := conn.FPS(); fps > 0 {
		logger.Debug(
			"Video [%s] reports %.2f FPS, publishing every %s",
			settings.VideoPath, fps, settings.FrameInterval,
		)
	}

	p := &VideoPublisher{
		n:       n,
		conn:    conn,
		frame:   backend.NewFrame(),
		pub:     n.CreatePublisher(settings.Bus.Publisher(settings.Topic)),
		frameID: settings.FrameID,
	}
	p.timer = n.CreateTimer(settings.FrameInterval, p.tick)

	return p, nil
}

// Topic is the topic frames are published on.
func (p *VideoPublisher) Topic() string {
	return p.pub.Topic()
}

// FrameInterval is the period between decode ticks.
func (p *VideoPublisher) FrameInterval() time.Duration {
	return p.timer.Period()
}

// Published is the number of frames handed to the bus so far.
func (p *VideoPublisher) Published() int {
	return p.published
}

func (p *VideoPublisher) tick() error {
	if err := p.conn.Read(p.frame); err != nil || p.frame.Empty() {
		if err != nil && !errors.Is(err, videobackend.ErrEndOfStream) {
			p.n.Logger().Debug("Unable to read frame: %s", err.Error())
		}
		p.n.Logger().Info("End of video reached.")
		p.n.Shutdown()
		p.Close()
		return nil
	}

	img, err := imagemsg.FromFrame(p.frame, imagemsg.BGR8, imagemsg.Header{
		Stamp:   p.n.Now(),
		FrameID: p.frameID,
	})
	if err != nil {
		return xerror.Errorf("unable to wrap decoded frame: %w", err)
	}

	if err := p.pub.Publish(img); err != nil {
		if errors.Is(err, bus.ErrClosed) {
			p.n.Logger().Warn("Bus closed, stopping publisher")
			p.n.Shutdown()
			return nil
		}
		return xerror.Errorf("unable to publish frame: %w", err)
	}

	p.published++
	p.n.Logger().Debug("Published frame %d", p.published)
	return nil
}

// Close releases the decoder and the frame buffer. Safe to call more than once.
func (p *VideoPublisher) Close() {
	p.closeOnce.Do(func() {
		if err := p.conn.Close(); err != nil {
			p.n.Logger().Warn("Unable to close video stream: %s", err.Error())
		}
		p.frame.Close()
	})
}
