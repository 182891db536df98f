package bus

import (
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/xerror"
)

// DefaultQueueDepth is the number of messages held per subscriber before
// the transport starts dropping new arrivals.
const DefaultQueueDepth = 10

var (
	ErrClosed       = xerror.New("bus is closed")
	ErrUnauthorized = xerror.New("unauthorized")
)

type Publisher interface {
	Topic() string
	Publish(imagemsg.Image) error
}

type Subscription interface {
	Topic() string
	C() <-chan imagemsg.Image
	Stats() Stats
	Close() error
}

// Stats counts deliveries into, and drops from, a single subscription's queue.
type Stats struct {
	Sent    uint64
	Dropped uint64
}

func queueDepthOrDefault(depth int) int {
	if depth < 1 {
		return DefaultQueueDepth
	}
	return depth
}
