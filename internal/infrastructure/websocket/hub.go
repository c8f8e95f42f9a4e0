// Package websocket is the push channel: one hub goroutine owns the
// connection registry and topic subscriptions, each connection runs a read
// and a write pump.
package websocket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	notificationapp "github.com/taskflow/backend/internal/application/notification"
	"go.uber.org/zap"
)

var _ notificationapp.Pusher = (*Hub)(nil)

// TopicAuthorizer decides whether a user may subscribe to a topic
type TopicAuthorizer interface {
	AuthorizeTopic(ctx context.Context, userID uuid.UUID, topic string) error
}

// TopicAuthorizerFunc adapts a function to TopicAuthorizer
type TopicAuthorizerFunc func(ctx context.Context, userID uuid.UUID, topic string) error

// AuthorizeTopic calls f
func (f TopicAuthorizerFunc) AuthorizeTopic(ctx context.Context, userID uuid.UUID, topic string) error {
	return f(ctx, userID, topic)
}

type subscription struct {
	client *Client
	topic  string
	add    bool
}

type delivery struct {
	client *Client // set for replies to one connection
	userID uuid.UUID
	topic  string // empty for user queue deliveries
	frame  []byte
}

// Hub maintains the set of active clients and routes messages to them
type Hub struct {
	clients map[uuid.UUID]map[*Client]struct{}
	topics  map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	deliver    chan delivery
	inspect    chan func()

	authorizer TopicAuthorizer
	logger     *zap.Logger
	sendBuffer int

	done     chan struct{}
	stopOnce sync.Once
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithSendBuffer sets the per-connection outbound queue length
func WithSendBuffer(n int) HubOption {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// NewHub creates a hub; Run must be called before clients connect
func NewHub(authorizer TopicAuthorizer, logger *zap.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		topics:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		deliver:    make(chan delivery, 256),
		inspect:    make(chan func()),
		authorizer: authorizer,
		logger:     logger,
		sendBuffer: 64,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's main loop and returns when ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer h.stopOnce.Do(func() { close(h.done) })
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			conns := h.clients[c.userID]
			if conns == nil {
				conns = make(map[*Client]struct{})
				h.clients[c.userID] = conns
			}
			conns[c] = struct{}{}
			h.logger.Debug("WebSocket client connected", zap.String("user_id", c.userID.String()))
		case c := <-h.unregister:
			h.remove(c)
		case s := <-h.subscribe:
			h.applySubscription(s)
		case d := <-h.deliver:
			h.route(d)
		case fn := <-h.inspect:
			fn()
		}
	}
}

// PushToUser sends payload on destination to every connection of userID
func (h *Hub) PushToUser(userID uuid.UUID, destination string, payload any) {
	frame, err := encode(TypeMessage, destination, payload)
	if err != nil {
		h.logger.Error("Failed to encode push", zap.String("destination", destination), zap.Error(err))
		return
	}
	h.enqueue(delivery{userID: userID, frame: frame})
}

// PushToTopic sends payload to userID's connections subscribed to topic
func (h *Hub) PushToTopic(topic string, userID uuid.UUID, payload any) {
	frame, err := encode(TypeMessage, topic, payload)
	if err != nil {
		h.logger.Error("Failed to encode push", zap.String("topic", topic), zap.Error(err))
		return
	}
	h.enqueue(delivery{userID: userID, topic: topic, frame: frame})
}

// TopicSubscribers returns the distinct users subscribed to topic
func (h *Hub) TopicSubscribers(topic string) []uuid.UUID {
	var ids []uuid.UUID
	h.do(func() {
		seen := make(map[uuid.UUID]struct{})
		for c := range h.topics[topic] {
			if _, dup := seen[c.userID]; !dup {
				seen[c.userID] = struct{}{}
				ids = append(ids, c.userID)
			}
		}
	})
	return ids
}

// ConnectionCount returns the number of open connections of userID
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	var n int
	h.do(func() { n = len(h.clients[userID]) })
	return n
}

// do runs fn on the hub goroutine and waits for it
func (h *Hub) do(fn func()) {
	finished := make(chan struct{})
	select {
	case h.inspect <- func() { fn(); close(finished) }:
		<-finished
	case <-h.done:
	}
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.deliver <- d:
	case <-h.done:
	}
}

func (h *Hub) route(d delivery) {
	if d.client != nil {
		if _, ok := h.clients[d.client.userID][d.client]; ok {
			h.send(d.client, d.frame)
		}
		return
	}
	if d.topic == "" {
		for c := range h.clients[d.userID] {
			h.send(c, d.frame)
		}
		return
	}
	for c := range h.topics[d.topic] {
		if c.userID == d.userID {
			h.send(c, d.frame)
		}
	}
}

// send queues a frame; a client whose buffer is full is dropped
func (h *Hub) send(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.logger.Warn("WebSocket send buffer full, dropping client", zap.String("user_id", c.userID.String()))
		h.remove(c)
	}
}

func (h *Hub) applySubscription(s subscription) {
	if _, ok := h.clients[s.client.userID][s.client]; !ok {
		return
	}
	if s.add {
		subs := h.topics[s.topic]
		if subs == nil {
			subs = make(map[*Client]struct{})
			h.topics[s.topic] = subs
		}
		subs[s.client] = struct{}{}
		s.client.topics[s.topic] = struct{}{}
		h.reply(s.client, TypeSubscribed, s.topic, nil)
		return
	}
	h.dropTopic(s.client, s.topic)
	h.reply(s.client, TypeUnsubscribed, s.topic, nil)
}

// reply sends a control frame to one connection from the hub goroutine
func (h *Hub) reply(c *Client, typ, topic string, data any) {
	frame, err := encode(typ, topic, data)
	if err != nil {
		return
	}
	h.send(c, frame)
}

func (h *Hub) dropTopic(c *Client, topic string) {
	delete(c.topics, topic)
	if subs, ok := h.topics[topic]; ok {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

func (h *Hub) remove(c *Client) {
	conns, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	for topic := range c.topics {
		h.dropTopic(c, topic)
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	h.logger.Debug("WebSocket client disconnected", zap.String("user_id", c.userID.String()))
}

func (h *Hub) closeAll() {
	for _, conns := range h.clients {
		for c := range conns {
			h.remove(c)
		}
	}
}
