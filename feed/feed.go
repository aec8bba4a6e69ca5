// Package feed broadcasts match snapshots to websocket spectators. The
// simulation never blocks on the network: each client has a bounded send
// queue and slow clients skip frames.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/brensch/duelsnake/game"
)

const (
	clientQueueSize = 8
	writeTimeout    = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server fans snapshots out to every connected spectator.
type Server struct {
	upgrader websocket.Upgrader
	log      *slog.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log:     logger,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades a spectator connection and streams snapshots until
// the client goes away or the server closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientQueueSize)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("spectator connected", "addr", conn.RemoteAddr().String(), "clients", n)

	go s.readLoop(c)
	s.writeLoop(c)
}

// readLoop discards inbound frames. Spectators are read-only; the loop
// exists to notice disconnects and answer control frames.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(c)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// Broadcast serializes the snapshot once and offers it to every client.
// A client with a full queue misses this frame rather than stalling the
// caller.
func (s *Server) Broadcast(snap *game.MatchSnapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("marshal snapshot", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount reports connected spectators.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	if ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	if ok {
		c.conn.Close()
		s.log.Info("spectator disconnected", "addr", c.conn.RemoteAddr().String())
	}
}

// Close disconnects every spectator and rejects new ones.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
		delete(s.clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}
