package node

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/tauraamui/framerelay/pkg/bus"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/xerror"
)

var ErrAlreadySpinning = xerror.New("node is already spinning")

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type Option func(*Node)

func WithClock(c Clock) Option {
	return func(n *Node) {
		if c != nil {
			n.clock = c
		}
	}
}

var newTicker = func(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Node owns a set of timer and subscription callbacks and runs them one at
// a time from Spin. Shutdown may be requested from anywhere, including from
// inside a callback, and is observed between callbacks.
type Node struct {
	name   string
	logger log.Logger
	clock  Clock

	mu         sync.Mutex
	timers     []*Timer
	subs       []*subscription
	publishers []bus.Publisher
	spinning   bool

	shutdown     chan struct{}
	shutdownOnce sync.Once
	closeOnce    sync.Once
}

func New(name string, opts ...Option) *Node {
	n := &Node{
		name:     name,
		logger:   log.Named(name),
		clock:    systemClock{},
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) Name() string { return n.name }

func (n *Node) Logger() log.Logger { return n.logger }

func (n *Node) Now() time.Time { return n.clock.Now() }

// Timer fires its callback every period until cancelled or the node closes.
type Timer struct {
	period   time.Duration
	callback func() error
	c        <-chan time.Time
	stop     func()
	stopOnce sync.Once
}

func (t *Timer) Period() time.Duration { return t.period }

func (t *Timer) Cancel() {
	t.stopOnce.Do(t.stop)
}

type subscription struct {
	sub      bus.Subscription
	callback func(imagemsg.Image) error
}

func (n *Node) CreateTimer(period time.Duration, callback func() error) *Timer {
	c, stop := newTicker(period)
	t := &Timer{period: period, callback: callback, c: c, stop: stop}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.timers = append(n.timers, t)
	return t
}

func (n *Node) CreateSubscription(sub bus.Subscription, callback func(imagemsg.Image) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, &subscription{sub: sub, callback: callback})
	n.logger.Debug("Subscribed to topic [%s]", sub.Topic())
}

func (n *Node) CreatePublisher(pub bus.Publisher) bus.Publisher {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.publishers = append(n.publishers, pub)
	n.logger.Debug("Publishing on topic [%s]", pub.Topic())
	return pub
}

// Shutdown asks Spin to return after the callback currently running, if any.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown requested")
		close(n.shutdown)
	})
}

func (n *Node) ShutdownRequested() bool {
	select {
	case <-n.shutdown:
		return true
	default:
		return false
	}
}

const (
	ctxCase = iota
	shutdownCase
	firstCallbackCase
)

// Spin runs callbacks until shutdown is requested, ctx is cancelled or a
// callback returns an error. The node is closed when Spin returns.
func (n *Node) Spin(ctx context.Context) error {
	n.mu.Lock()
	if n.spinning {
		n.mu.Unlock()
		return ErrAlreadySpinning
	}
	n.spinning = true
	timers := append([]*Timer{}, n.timers...)
	subs := append([]*subscription{}, n.subs...)
	n.mu.Unlock()

	defer n.Close()

	cases := make([]reflect.SelectCase, firstCallbackCase, firstCallbackCase+len(timers)+len(subs))
	cases[ctxCase] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}
	cases[shutdownCase] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(n.shutdown)}
	for _, t := range timers {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(t.c)})
	}
	for _, s := range subs {
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(s.sub.C())})
	}

	n.logger.Debug("Spinning with %d timer(s) and %d subscription(s)", len(timers), len(subs))

	for {
		if n.ShutdownRequested() {
			return nil
		}

		chosen, recv, ok := reflect.Select(cases)
		switch {
		case chosen == ctxCase:
			return nil
		case chosen == shutdownCase:
			return nil
		case chosen < firstCallbackCase+len(timers):
			t := timers[chosen-firstCallbackCase]
			if err := t.callback(); err != nil {
				n.logger.Error("Timer callback failed: %s", err.Error())
				return xerror.Errorf("node [%s] timer callback: %w", n.name, err)
			}
		default:
			s := subs[chosen-firstCallbackCase-len(timers)]
			if !ok {
				// the queue has closed, stop selecting on it
				cases[chosen].Chan = reflect.Value{}
				n.logger.Debug("Subscription to topic [%s] closed", s.sub.Topic())
				continue
			}
			if err := s.callback(recv.Interface().(imagemsg.Image)); err != nil {
				n.logger.Error("Subscription callback failed: %s", err.Error())
				return xerror.Errorf("node [%s] subscription callback: %w", n.name, err)
			}
		}
	}
}

// Close stops every timer and closes every subscription. Safe to call more than once.
func (n *Node) Close() {
	n.closeOnce.Do(func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		for _, t := range n.timers {
			t.Cancel()
		}
		for _, s := range n.subs {
			if err := s.sub.Close(); err != nil {
				n.logger.Warn("Unable to close subscription to topic [%s]: %s", s.sub.Topic(), err.Error())
			}
		}
		n.logger.Debug("Closed")
	})
}
