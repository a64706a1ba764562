// SPDX-License-Identifier: MIT
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"eqscope/internal/render"
)

// FramesPath is where WebSocketSink serves frames.
const FramesPath = "/frames"

const (
	clientQueueDepth = 4
	writeTimeout     = time.Second
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

// WebSocketSink broadcasts every frame as a JSON text message to each
// connected client. A client that falls behind loses frames rather than
// slowing the render loop.
type WebSocketSink struct {
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	clients   map[*wsClient]struct{}
	clientsMu sync.Mutex
	wg        sync.WaitGroup

	server   *http.Server
	listener net.Listener

	dropped   uint64
	closeOnce sync.Once
}

// NewWebSocketSink creates a sink. If addr is not empty it also starts an
// HTTP server on it; otherwise mount Handler yourself.
func NewWebSocketSink(addr string) (*WebSocketSink, error) {
	s := &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualisation clients only.
			},
		},
		mux:     http.NewServeMux(),
		clients: make(map[*wsClient]struct{}),
	}
	s.mux.HandleFunc(FramesPath, s.handleWebSocket)

	if addr == "" {
		return s, nil
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.listener = ln
	s.server = &http.Server{Handler: s.mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Infof("websocket: serving frames on ws://%s%s", ln.Addr(), FramesPath)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("websocket: server error: %v", err)
		}
	}()
	return s, nil
}

// Handler serves the frame stream at FramesPath.
func (s *WebSocketSink) Handler() http.Handler {
	return s.mux
}

// Addr returns the listening address, or nil without a server.
func (s *WebSocketSink) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Clients returns the number of connected clients.
func (s *WebSocketSink) Clients() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Dropped returns the number of messages not queued because a client was
// behind.
func (s *WebSocketSink) Dropped() uint64 {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return s.dropped
}

func (s *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("websocket: upgrade error: %v", err)
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, clientQueueDepth),
		done: make(chan struct{}),
	}

	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	total := len(s.clients)
	s.clientsMu.Unlock()
	logger.Infof("websocket: client %s connected, total: %d", conn.RemoteAddr(), total)

	s.wg.Add(2)
	go s.writeLoop(c)
	go s.readLoop(c)
}

// readLoop discards client messages and notices disconnects.
func (s *WebSocketSink) readLoop(c *wsClient) {
	defer s.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.remove(c)
			return
		}
	}
}

func (s *WebSocketSink) writeLoop(c *wsClient) {
	defer s.wg.Done()
	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warnf("websocket: write to %s: %v", c.conn.RemoteAddr(), err)
				s.remove(c)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (s *WebSocketSink) remove(c *wsClient) {
	s.clientsMu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	total := len(s.clients)
	s.clientsMu.Unlock()

	if ok {
		close(c.done)
		c.conn.Close()
		logger.Infof("websocket: client disconnected, total: %d", total)
	}
}

// Draw implements render.Sink. The frame is encoded once and queued for
// every client.
func (s *WebSocketSink) Draw(f *render.Frame) error {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if len(s.clients) == 0 {
		return nil
	}

	msg, err := json.Marshal(f)
	if err != nil {
		return err
	}
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.dropped++
		}
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (s *WebSocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		logger.Infof("websocket: closing")

		s.clientsMu.Lock()
		clients := make([]*wsClient, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.clientsMu.Unlock()
		for _, c := range clients {
			s.remove(c)
		}

		if s.server != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			err = s.server.Shutdown(ctx)
		}
		s.wg.Wait()
	})
	return err
}

// Ensure WebSocketSink satisfies the interface at compile time.
var _ Sink = (*WebSocketSink)(nil)
