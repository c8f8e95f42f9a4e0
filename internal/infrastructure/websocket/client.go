package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/taskflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	authorizeTimeout = 5 * time.Second
)

// Client is one WebSocket connection of an authenticated user
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uuid.UUID
	topics map[string]struct{} // owned by the hub goroutine
}

// ServerConfig configures the HTTP upgrade
type ServerConfig struct {
	AllowedOrigins []string // "*" allows any origin; empty allows same host only
	MaxMessageSize int64
}

// Server upgrades HTTP requests and attaches the connections to a hub
type Server struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	maxMessageSize int64
}

// NewServer creates a Server for hub
func NewServer(hub *Hub, cfg ServerConfig) *Server {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 64 << 10
	}
	return &Server{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
		maxMessageSize: cfg.MaxMessageSize,
	}
}

// Serve upgrades the request and blocks until the connection closes
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Client{
		hub:    s.hub,
		conn:   conn,
		send:   make(chan []byte, s.hub.sendBuffer),
		userID: userID,
		topics: make(map[string]struct{}),
	}
	select {
	case s.hub.register <- c:
	case <-s.hub.done:
		conn.Close()
		return errors.New("websocket hub is stopped")
	}

	go c.writePump()
	c.readPump(r.Context(), s.maxMessageSize)
	return nil
}

// readPump handles subscription requests until the peer goes away
func (c *Client) readPump(ctx context.Context, maxMessageSize int64) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("WebSocket read error", zap.String("user_id", c.userID.String()), zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.replyError("", "INVALID_MESSAGE", "Message must be a JSON object")
			continue
		}

		switch msg.Type {
		case TypePing:
			c.replyPong()
		case TypeSubscribe:
			c.handleSubscribe(ctx, msg.Topic)
		case TypeUnsubscribe:
			c.requestSubscription(msg.Topic, false)
		default:
			c.replyError(msg.Topic, "INVALID_MESSAGE", "Unknown message type")
		}
	}
}

func (c *Client) handleSubscribe(ctx context.Context, topic string) {
	if topic == "" {
		c.replyError("", "INVALID_TOPIC", "Topic is required")
		return
	}
	if c.hub.authorizer != nil {
		actx, cancel := context.WithTimeout(ctx, authorizeTimeout)
		err := c.hub.authorizer.AuthorizeTopic(actx, c.userID, topic)
		cancel()
		if err != nil {
			code, message := "FORBIDDEN", "Subscription refused"
			var de *shared.DomainError
			if errors.As(err, &de) {
				code, message = de.Code, de.Message
			}
			c.replyError(topic, code, message)
			return
		}
	}
	c.requestSubscription(topic, true)
}

func (c *Client) requestSubscription(topic string, add bool) {
	select {
	case c.hub.subscribe <- subscription{client: c, topic: topic, add: add}:
	case <-c.hub.done:
	}
}

func (c *Client) replyError(topic, code, message string) {
	frame, err := encode(TypeError, topic, ErrorData{Code: code, Message: message})
	if err == nil {
		c.hub.enqueue(delivery{client: c, frame: frame})
	}
}

func (c *Client) replyPong() {
	frame, err := encode(TypePong, "", map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)})
	if err == nil {
		c.hub.enqueue(delivery{client: c, frame: frame})
	}
}

// writePump writes queued frames and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}
