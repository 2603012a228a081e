package sse

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultHeartbeatInterval = 15 * time.Second

// Connection is one registered push channel. The tenant tag scopes targeted
// fan-out; the empty tag means the connection only receives untargeted
// broadcasts.
type Connection struct {
	id       string
	tenantID string
	stream   Stream

	stop     chan struct{}
	stopOnce sync.Once
}

// stopHeartbeat is safe to call more than once; the heartbeat ticker is
// stopped exactly once per connection.
func (c *Connection) stopHeartbeat() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Registry tracks live push connections and fans events out to them.
// All operations are safe for concurrent use from independent request
// handlers. Delivery is best-effort: sends are never queued or retried, and
// a failed write drops only the connection it failed on.
type Registry struct {
	logger            *zap.Logger
	heartbeatInterval time.Duration

	mu          sync.RWMutex
	connections map[string]*Connection
}

func NewRegistry(logger *zap.Logger, heartbeatInterval time.Duration) *Registry {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	return &Registry{
		logger:            logger,
		heartbeatInterval: heartbeatInterval,
		connections:       make(map[string]*Connection),
	}
}

// Register adds a fresh stream to the registry, delivers the
// CONNECTION_ESTABLISHED event as its first message, and starts the
// connection's keep-alive driver. The returned id is unique for the process
// lifetime. The connection is removed again when the stream reports closure.
func (r *Registry) Register(stream Stream, tenantID string) string {
	conn := &Connection{
		id:       uuid.NewString(),
		tenantID: tenantID,
		stream:   stream,
		stop:     make(chan struct{}),
	}

	r.mu.Lock()
	r.connections[conn.id] = conn
	r.mu.Unlock()

	r.logger.Info("connection registered",
		zap.String("connectionId", conn.id),
		zap.String("tenantId", tenantID))

	if err := r.write(conn, ConnectionEstablished(conn.id)); err != nil {
		return conn.id
	}

	go r.heartbeatLoop(conn)

	go func() {
		<-stream.CloseNotify()
		r.Remove(conn.id)
	}()

	return conn.id
}

// Remove stops the connection's heartbeat and drops it from the registry.
// Removing an id that is already absent is a no-op. The heartbeat is stopped
// before the record disappears so the ticker never fires against a channel
// being torn down.
func (r *Registry) Remove(connectionID string) {
	r.mu.Lock()
	conn, ok := r.connections[connectionID]
	if ok {
		conn.stopHeartbeat()
		delete(r.connections, connectionID)
	}
	r.mu.Unlock()

	if ok {
		r.logger.Info("connection removed",
			zap.String("connectionId", connectionID))
	}
}

// SendTo delivers one event to a single connection. An unknown id is a
// silent no-op.
func (r *Registry) SendTo(connectionID string, event Event) {
	r.mu.RLock()
	conn, ok := r.connections[connectionID]
	r.mu.RUnlock()

	if !ok {
		return
	}

	r.write(conn, event)
}

// BroadcastAll delivers one event to every registered connection regardless
// of tenant tag.
func (r *Registry) BroadcastAll(event Event) {
	r.fanOut(event, func(*Connection) bool { return true })
}

// BroadcastToTenant delivers one event to every connection tagged with the
// given tenant. Untagged connections never match, so an unasserted tenant
// can never receive another tenant's events.
func (r *Registry) BroadcastToTenant(tenantID string, event Event) {
	if tenantID == "" {
		return
	}

	r.fanOut(event, func(c *Connection) bool { return c.tenantID == tenantID })
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.connections)
}

// Close drops every connection; used on graceful shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	for id, conn := range r.connections {
		conn.stopHeartbeat()
		delete(r.connections, id)
	}
	r.mu.Unlock()
}

func (r *Registry) fanOut(event Event, match func(*Connection) bool) {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to serialize event",
			zap.String("type", event.Type),
			zap.Error(err))

		return
	}

	r.mu.RLock()
	targets := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		if match(conn) {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.stream.WriteEvent(data); err != nil {
			r.dropBroken(conn, err)
		}
	}
}

func (r *Registry) write(conn *Connection, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		r.logger.Error("failed to serialize event",
			zap.String("type", event.Type),
			zap.Error(err))

		return err
	}

	if err := conn.stream.WriteEvent(data); err != nil {
		r.dropBroken(conn, err)

		return err
	}

	return nil
}

// dropBroken treats a write failure as equivalent to a closed transport and
// eagerly deregisters the connection rather than waiting for a close signal
// that may never arrive.
func (r *Registry) dropBroken(conn *Connection, err error) {
	r.logger.Warn("dropping connection after failed write",
		zap.String("connectionId", conn.id),
		zap.Error(err))

	r.Remove(conn.id)
}

// heartbeatLoop keeps the transport alive across idle periods so
// intermediary proxies do not time the connection out. One loop runs per
// open connection; Remove stops it.
func (r *Registry) heartbeatLoop(conn *Connection) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-conn.stop:
			return
		case <-ticker.C:
			select {
			case <-conn.stop:
				return
			default:
			}

			if err := conn.stream.WriteKeepAlive(); err != nil {
				r.dropBroken(conn, err)

				return
			}
		}
	}
}
