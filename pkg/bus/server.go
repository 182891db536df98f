package bus

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/tauraamui/framerelay/pkg/log"
	"github.com/tauraamui/xerror"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	shutdownWait = 5 * time.Second
)

type ServerSettings struct {
	Address    string
	QueueDepth int
	Secret     string
}

// Server exposes a Local bus to remote subscribers over websocket. Every
// remote subscriber is backed by its own local subscription so the queue
// depth and drop behaviour match in process delivery.
type Server struct {
	bus      *Local
	settings ServerSettings
	router   *mux.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*serverClient]struct{}
}

func NewServer(bus *Local, settings ServerSettings) *Server {
	s := &Server{
		bus:      bus,
		settings: settings,
		router:   mux.NewRouter(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: map[*serverClient]struct{}{},
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/topics/{topic}", s.handleTopic)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.settings.Address)
	if err != nil {
		return xerror.Errorf("unable to listen on %s: %w", s.settings.Address, err)
	}
	return s.ServeListener(ctx, listener)
}

func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{Handler: s.router}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Bus listening on %s", listener.Addr().String())
		serveErr <- srv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		s.closeClients()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeClients()
	if err != nil {
		return xerror.Errorf("unable to shutdown bus server: %w", err)
	}
	return nil
}

// ClientCount reports the number of connected remote subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok")) //nolint
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	subject, err := authorize(s.settings.Secret, r)
	if err != nil {
		log.Warn("Rejected subscriber for topic [%s]: %s", topic, err.Error())
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	sub, err := s.bus.Subscribe(topic, s.settings.QueueDepth)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		log.Error("Unable to upgrade subscriber connection: %s", err.Error())
		return
	}

	client := &serverClient{conn: conn, sub: sub}
	s.register(client)
	log.Info("Subscriber [%s] connected to topic [%s]", subjectOrAddr(subject, r), topic)

	go client.readPump()
	client.writePump()

	s.unregister(client)
	log.Info("Subscriber [%s] disconnected from topic [%s]", subjectOrAddr(subject, r), topic)
}

func subjectOrAddr(subject string, r *http.Request) string {
	if len(subject) > 0 {
		return subject
	}
	return r.RemoteAddr
}

func (s *Server) register(c *serverClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) unregister(c *serverClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
	}
}

type serverClient struct {
	conn      *websocket.Conn
	sub       *LocalSubscription
	closeOnce sync.Once
}

func (c *serverClient) close() {
	c.closeOnce.Do(func() {
		c.sub.Close()
		c.conn.Close()
	})
}

// readPump only exists to observe pongs and disconnection, subscribers
// never send anything.
func (c *serverClient) readPump() {
	defer c.close()

	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *serverClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case msg, ok := <-c.sub.C():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "")) //nolint
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
