package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/hoangpn/socialite/backend/pkg/auth"
)

// Push event names emitted to live connections.
const (
	EventNotification        = "notification"
	EventMessageReceived     = "messageReceived"
	EventConversationUpdated = "conversationUpdated"
)

// Frame is the wire envelope for every push.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Gateway tracks live connections per authenticated user and delivers
// best-effort pushes to them. One user may hold several connections
// (devices, tabs); every one of them receives each push. Nothing is queued
// for offline users.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]map[string]*connection

	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewGateway(jwtManager *auth.JWTManager, logger *zap.Logger) *Gateway {
	return &Gateway{
		connections: make(map[string]map[string]*connection),
		jwtManager:  jwtManager,
		logger:      logger,
	}
}

// SendToUser delivers an event frame to every open connection of userID.
// A user with no open connections makes this a no-op.
func (g *Gateway) SendToUser(userID string, event string, data interface{}) {
	payload, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		g.logger.Error("marshal push frame", zap.String("event", event), zap.Error(err))
		return
	}

	g.mu.RLock()
	conns := make([]*connection, 0, len(g.connections[userID]))
	for _, conn := range g.connections[userID] {
		conns = append(conns, conn)
	}
	g.mu.RUnlock()

	for _, conn := range conns {
		conn.trySend(payload)
	}
}

// SendToUsers delivers the same event frame to several users.
func (g *Gateway) SendToUsers(userIDs []string, event string, data interface{}) {
	for _, userID := range userIDs {
		g.SendToUser(userID, event, data)
	}
}

// BroadcastAll delivers an event frame to every connected user.
func (g *Gateway) BroadcastAll(event string, data interface{}) {
	g.SendToUsers(g.OnlineUsers(), event, data)
}

// IsOnline reports whether userID has at least one open connection.
func (g *Gateway) IsOnline(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections[userID]) > 0
}

// OnlineUsers lists every user with at least one open connection.
func (g *Gateway) OnlineUsers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	users := make([]string, 0, len(g.connections))
	for userID := range g.connections {
		users = append(users, userID)
	}
	return users
}

func (g *Gateway) register(conn *connection) {
	g.mu.Lock()
	if _, ok := g.connections[conn.userID]; !ok {
		g.connections[conn.userID] = make(map[string]*connection)
	}
	g.connections[conn.userID][conn.id] = conn
	g.mu.Unlock()
	g.logger.Debug("connection registered", zap.String("user_id", conn.userID), zap.String("conn_id", conn.id))
}

// unregister removes the connection; the user's bucket is dropped entirely
// once its last connection closes.
func (g *Gateway) unregister(conn *connection) {
	g.mu.Lock()
	conns, ok := g.connections[conn.userID]
	if ok {
		if _, present := conns[conn.id]; present {
			delete(conns, conn.id)
			conn.closeSend()
			if len(conns) == 0 {
				delete(g.connections, conn.userID)
			}
		}
	}
	g.mu.Unlock()
	g.logger.Debug("connection unregistered", zap.String("user_id", conn.userID), zap.String("conn_id", conn.id))
}
