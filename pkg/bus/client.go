package bus

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tauraamui/framerelay/pkg/imagemsg"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/xerror"
)

const defaultRetryInterval = time.Second

type ClientSettings struct {
	Address       string
	Topic         string
	QueueDepth    int
	RetryInterval time.Duration
	Secret        string
	Subject       string
}

// Client is a Subscription fed by a remote Server. It keeps re-dialling
// until closed so a subscriber may start before the publisher exists.
type Client struct {
	sent     uint64
	dropped  uint64
	settings ClientSettings
	ch       chan imagemsg.Image
	cancel   context.CancelFunc
	done     chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn

	closeOnce sync.Once
}

var dialWebsocket = func(ctx context.Context, addr string, header http.Header) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, addr, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil && resp != nil && resp.StatusCode == http.StatusUnauthorized {
		return nil, xerror.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return conn, err
}

func Dial(ctx context.Context, settings ClientSettings) *Client {
	if settings.RetryInterval <= 0 {
		settings.RetryInterval = defaultRetryInterval
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		settings: settings,
		ch:       make(chan imagemsg.Image, queueDepthOrDefault(settings.QueueDepth)),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.run(ctx)
	return c
}

func (c *Client) Topic() string { return c.settings.Topic }

func (c *Client) C() <-chan imagemsg.Image { return c.ch }

func (c *Client) Stats() Stats {
	return Stats{
		Sent:    atomic.LoadUint64(&c.sent),
		Dropped: atomic.LoadUint64(&c.dropped),
	}
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
		}
		c.mu.Unlock()
		<-c.done
		close(c.ch)
	})
	return nil
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	addr, err := topicURL(c.settings.Address, c.settings.Topic)
	if err != nil {
		log.Error("Unable to subscribe to topic [%s]: %s", c.settings.Topic, err.Error())
		return
	}

	outage, everConnected := false, false
	for {
		connected, err := c.connectAndReceive(ctx, addr)
		if ctx.Err() != nil {
			return
		}

		if connected {
			outage, everConnected = false, true
		}
		if !outage {
			if everConnected {
				log.Warn("Lost connection to topic [%s] on %s, retrying every %s: %v",
					c.settings.Topic, c.settings.Address, c.settings.RetryInterval, err)
			} else {
				log.Warn("Unable to connect to topic [%s] on %s, retrying every %s: %v",
					c.settings.Topic, c.settings.Address, c.settings.RetryInterval, err)
			}
			outage = true
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.settings.RetryInterval):
		}
	}
}

func (c *Client) connectAndReceive(ctx context.Context, addr string) (bool, error) {
	header, err := c.authHeader()
	if err != nil {
		return false, err
	}

	conn, err := dialWebsocket(ctx, addr, header)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()
	}()

	// Close may have run between the dial and storing conn.
	if err := ctx.Err(); err != nil {
		return false, err
	}

	log.Debug("Connected to topic [%s] on %s", c.settings.Topic, c.settings.Address)

	conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
	})

	for {
		var msg imagemsg.Image
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return true, xerror.Errorf("publisher went away: %w", err)
			}
			return true, err
		}
		conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint
		c.enqueue(msg)
	}
}

func (c *Client) enqueue(msg imagemsg.Image) {
	select {
	case c.ch <- msg:
		atomic.AddUint64(&c.sent, 1)
	default:
		atomic.AddUint64(&c.dropped, 1)
	}
}

func (c *Client) authHeader() (http.Header, error) {
	header := http.Header{}
	if len(c.settings.Secret) == 0 {
		return header, nil
	}
	token, err := GenToken(c.settings.Secret, c.settings.Subject)
	if err != nil {
		return nil, xerror.Errorf("unable to sign bus token: %w", err)
	}
	header.Set("Authorization", "Bearer "+token)
	return header, nil
}

func topicURL(address, topic string) (string, error) {
	if len(address) == 0 {
		return "", xerror.New("bus address is empty")
	}
	u := url.URL{Scheme: "ws", Host: address, Path: "/topics/" + topic}
	return u.String(), nil
}
