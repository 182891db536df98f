package videobackend

import (
	"context"
	"strings"

	"github.com/tauraamui/framerelay/pkg/video/videoframe"
	"github.com/tauraamui/xerror"
)

var ErrEndOfStream = xerror.New("end of video stream")

type Connection interface {
	UUID() string
	Read(videoframe.Frame) error
	IsOpen() bool
	// FPS reports the stream's native frame rate, 0 when unknown.
	FPS() float64
	Close() error
}

type Backend interface {
	Connect(context.Context, string) (Connection, error)
	NewFrame() videoframe.Frame
}

func Default() Backend {
	return OpenCV()
}

func OpenCV() Backend {
	return &openCVBackend{}
}

func Mock() Backend {
	return &mockVideoBackend{}
}

func Resolve(t string) Backend {
	switch strings.ToLower(t) {
	case "mock":
		return Mock()
	default:
		return Default()
	}
}
