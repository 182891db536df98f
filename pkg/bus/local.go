package bus

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
)

// Local is an in-process topic bus. Each subscription owns a bounded
// queue, publishing never blocks and a full queue drops the new message.
type Local struct {
	mu     sync.RWMutex
	topics map[string]map[string]*LocalSubscription
	closed bool
}

func NewLocal() *Local {
	return &Local{topics: map[string]map[string]*LocalSubscription{}}
}

func (b *Local) Publisher(topic string) Publisher {
	return &localPublisher{bus: b, topic: topic}
}

func (b *Local) Subscribe(topic string, depth int) (*LocalSubscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	sub := &LocalSubscription{
		id:    uuid.NewString(),
		topic: topic,
		bus:   b,
		ch:    make(chan imagemsg.Image, queueDepthOrDefault(depth)),
	}

	subs, ok := b.topics[topic]
	if !ok {
		subs = map[string]*LocalSubscription{}
		b.topics[topic] = subs
	}
	subs[sub.id] = sub
	return sub, nil
}

// SubscriberCount reports the number of live subscriptions on topic.
func (b *Local) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

func (b *Local) publish(topic string, msg imagemsg.Image) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for _, sub := range b.topics[topic] {
		select {
		case sub.ch <- msg:
			atomic.AddUint64(&sub.sent, 1)
		default:
			atomic.AddUint64(&sub.dropped, 1)
		}
	}
	return nil
}

func (b *Local) unsubscribe(sub *LocalSubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(b.topics, sub.topic)
	}
	close(sub.ch)
}

// Close ends every subscription and rejects further publishes.
func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for _, subs := range b.topics {
		for _, sub := range subs {
			close(sub.ch)
		}
	}
	b.topics = nil
	return nil
}

type localPublisher struct {
	bus   *Local
	topic string
}

func (p *localPublisher) Topic() string { return p.topic }

func (p *localPublisher) Publish(msg imagemsg.Image) error {
	return p.bus.publish(p.topic, msg)
}

type LocalSubscription struct {
	sent    uint64
	dropped uint64
	id      string
	topic   string
	bus     *Local
	ch      chan imagemsg.Image
}

func (s *LocalSubscription) ID() string { return s.id }

func (s *LocalSubscription) Topic() string { return s.topic }

func (s *LocalSubscription) C() <-chan imagemsg.Image { return s.ch }

func (s *LocalSubscription) Stats() Stats {
	return Stats{
		Sent:    atomic.LoadUint64(&s.sent),
		Dropped: atomic.LoadUint64(&s.dropped),
	}
}

func (s *LocalSubscription) Close() error {
	s.bus.unsubscribe(s)
	return nil
}
