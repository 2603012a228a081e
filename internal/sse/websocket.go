package sse

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	websocketWriteTimeout = 10 * time.Second
	websocketPongTimeout  = 60 * time.Second
)

// WebSocketStream adapts a websocket connection to the Stream interface so
// browser clients may choose either transport; keep-alive maps to a ping
// control frame instead of a comment frame.
type WebSocketStream struct {
	mu   sync.Mutex
	conn *websocket.Conn

	done     chan struct{}
	doneOnce sync.Once
}

func NewWebSocketStream(conn *websocket.Conn) *WebSocketStream {
	s := &WebSocketStream{
		conn: conn,
		done: make(chan struct{}),
	}

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(websocketPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(websocketPongTimeout))
	})

	go s.readLoop()

	return s
}

func (s *WebSocketStream) WriteEvent(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))

	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *WebSocketStream) WriteKeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(websocketWriteTimeout))

	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *WebSocketStream) CloseNotify() <-chan struct{} {
	return s.done
}

// Close tears down the underlying websocket connection.
func (s *WebSocketStream) Close() error {
	err := s.conn.Close()
	s.doneOnce.Do(func() { close(s.done) })

	return err
}

// readLoop drains inbound frames; the push channel is one-way, so client
// messages are discarded, but reading is what surfaces transport closure.
func (s *WebSocketStream) readLoop() {
	for {
		_, _, err := s.conn.ReadMessage()
		if err != nil {
			s.doneOnce.Do(func() { close(s.done) })

			return
		}
	}
}
