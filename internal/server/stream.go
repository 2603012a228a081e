package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/sse"
	"github.com/datafortress/lakehouse/internal/tenant"
)

// StreamServer exposes the long-lived push endpoints. Both transports feed
// the same registry; an anonymous tenant context is tolerated here and the
// connection simply receives no tenant-targeted events.
type StreamServer struct {
	logger   *zap.Logger
	registry *sse.Registry
	upgrader *websocket.Upgrader
}

func NewStreamServer(
	logger *zap.Logger,
	registry *sse.Registry,
	upgrader *websocket.Upgrader,
) *StreamServer {
	return &StreamServer{
		logger:   logger,
		registry: registry,
		upgrader: upgrader,
	}
}

func (s *StreamServer) Register(router *mux.Router) {
	router.HandleFunc("/events", s.handleEvents).Methods("GET")
	router.HandleFunc("/ws", s.handleWebSocket).Methods("GET")
}

func (s *StreamServer) handleEvents(w http.ResponseWriter, r *http.Request) {
	tc, _ := tenant.FromContext(r.Context())

	stream, err := sse.NewHTTPStream(w, r)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)

		return
	}

	connectionID := s.registry.Register(stream, tc.BroadcastKey())

	s.logger.Info("event stream opened",
		zap.String("connectionId", connectionID),
		zap.String("tenantId", tc.BroadcastKey()))

	// Hold the handler open for the lifetime of the connection; the
	// registry removes the record when this fires.
	<-stream.CloseNotify()

	s.logger.Info("event stream closed",
		zap.String("connectionId", connectionID))
}

func (s *StreamServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	tc, _ := tenant.FromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))

		return
	}

	stream := sse.NewWebSocketStream(conn)
	defer stream.Close()

	connectionID := s.registry.Register(stream, tc.BroadcastKey())

	s.logger.Info("websocket stream opened",
		zap.String("connectionId", connectionID),
		zap.String("tenantId", tc.BroadcastKey()))

	<-stream.CloseNotify()

	s.logger.Info("websocket stream closed",
		zap.String("connectionId", connectionID))
}
