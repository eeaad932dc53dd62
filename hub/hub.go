package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	"github.com/EmadAlmahdi/WebSocketServer/errors"
	"github.com/EmadAlmahdi/WebSocketServer/internal/eventbus"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/presence"
)

var validate = validator.New()

const eventSource = "hub"

// Options represents hub configuration options
type Options struct {
	Logger        *logging.Logger
	EventBus      eventbus.Bus
	HistorySize   int
	HistoryReplay int
}

// Hub owns the presence registry, the message history buffer and the set of
// live connections. Every inbound event mutates state and publishes the
// roster inside one critical section, reproducing the source's
// one-event-at-a-time semantics on a multi-threaded runtime.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]domain.Client
	usernames map[string]string // connection id -> username, set once at login
	registry  *presence.Registry
	history   *History

	logger   *logging.Logger
	eventBus eventbus.Bus
	replay   int

	messagesSent     int64
	messagesReceived int64
	startTime        time.Time
	closed           bool
}

// New creates a new hub
func New(opts Options) *Hub {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(logging.Config{Level: "info", Format: "text"})
	}

	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = 100
	}

	replay := opts.HistoryReplay
	if replay <= 0 || replay > historySize {
		replay = 20
	}

	return &Hub{
		clients:   make(map[string]domain.Client),
		usernames: make(map[string]string),
		registry:  presence.NewRegistry(),
		history:   NewHistory(historySize),
		logger:    logger,
		eventBus:  opts.EventBus,
		replay:    replay,
		startTime: time.Now(),
	}
}

// Connect implements domain.Hub
func (h *Hub) Connect(client domain.Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New(errors.ErrorTypeTransport, "hub_closed", "hub is shut down")
	}

	clientID := client.ID()
	h.clients[clientID] = client

	h.sendPayload(client, domain.EventConnected, domain.Connected{
		ConnectionID: clientID,
		ServerTime:   time.Now().Format(time.RFC3339),
	})

	if replay := h.history.Recent(h.replay); len(replay) > 0 {
		h.sendPayload(client, domain.EventMessageHistory, replay)
	}

	h.publishEvent(eventbus.EventClientConnected, clientID, "")

	h.logger.Info("client connected",
		"client_id", clientID,
		"total_clients", len(h.clients),
	)

	return nil
}

// Login implements domain.Hub. The username association is immutable for the
// connection's lifetime; a failed validation leaves the connection
// unauthenticated and retryable.
func (h *Hub) Login(clientID string, req domain.LoginRequest) (domain.LoginSuccess, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[clientID]; !ok {
		return domain.LoginSuccess{}, errors.New(errors.ErrorTypeTransport, "unknown_connection", "connection is not registered")
	}

	if _, ok := h.usernames[clientID]; ok {
		return domain.LoginSuccess{}, errors.NewValidation("already_authenticated", "connection is already logged in")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.FullName = strings.TrimSpace(req.FullName)
	if err := validate.Struct(req); err != nil {
		return domain.LoginSuccess{}, errors.Wrap(err, errors.ErrorTypeValidation, "invalid_login",
			"username and fullName must be non-empty and at most 100 characters")
	}

	now := time.Now()
	session := &presence.Session{
		ConnectionID: clientID,
		FullName:     req.FullName,
		LoginTime:    now,
		LastSeen:     now,
		SourceURL:    req.SourceURL,
		ClientAgent:  req.ClientAgent,
		Online:       true,
	}

	h.registry.Register(req.Username, session)
	h.usernames[clientID] = req.Username

	h.publishEvent(eventbus.EventUserLogin, clientID, req.Username)
	h.publishRosterLocked()

	h.logger.Info("user logged in",
		"client_id", clientID,
		"username", req.Username,
		"user_count", h.registry.UserCount(),
	)

	return domain.LoginSuccess{
		Username:  req.Username,
		SessionID: clientID,
	}, nil
}

// Disconnect implements domain.Hub. It is the terminal transition for a
// connection regardless of prior state.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}

	delete(h.clients, clientID)
	client.Close()

	if username, authenticated := h.usernames[clientID]; authenticated {
		delete(h.usernames, clientID)

		owner, found := h.registry.MarkOffline(clientID, time.Now())
		if found && !h.registry.HasActiveSessions(owner) {
			h.registry.Evict(owner)
		}

		h.publishEvent(eventbus.EventUserOffline, clientID, username)
		h.publishRosterLocked()

		h.logger.Info("user went offline",
			"client_id", clientID,
			"username", username,
			"user_count", h.registry.UserCount(),
		)
	}

	h.publishEvent(eventbus.EventClientDisconnected, clientID, "")

	h.logger.Info("client disconnected",
		"client_id", clientID,
		"total_clients", len(h.clients),
	)
}

// Broadcast implements domain.Hub. Any connection may broadcast,
// authenticated or not.
func (h *Hub) Broadcast(clientID string, payload json.RawMessage) (domain.MessageAck, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(payload) == 0 || string(payload) == "null" {
		return domain.MessageAck{}, errors.NewValidation("empty_message", "message payload must not be empty")
	}

	h.messagesReceived++

	timestamp := time.Now().Format(time.RFC3339)
	enriched := domain.BroadcastMessage{
		From:      clientID,
		Payload:   payload,
		Timestamp: timestamp,
	}

	h.history.Append(enriched)
	h.broadcastPayload(domain.EventNewMessage, enriched, "")

	h.publishEvent(eventbus.EventMessageBroadcast, clientID, "")

	return domain.MessageAck{
		Status:    "ok",
		Message:   "message received",
		Timestamp: timestamp,
	}, nil
}

// Direct implements domain.Hub. Delivery targets every session registered
// under the destination username; a missing target is reported through the
// acknowledgement, not as a failure of the connection.
func (h *Hub) Direct(clientID string, req domain.ChatMessage) (domain.ChatAck, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sender, ok := h.usernames[clientID]
	if !ok {
		return domain.ChatAck{}, errors.NewAuthRequired("login_required", "direct messages require login")
	}

	req.Person = strings.TrimSpace(req.Person)
	req.Message = strings.TrimSpace(req.Message)
	if err := validate.Struct(req); err != nil {
		return domain.ChatAck{
			Success: false,
			Error:   "message must be non-empty and at most 100 characters",
		}, nil
	}

	sessions, found := h.registry.Lookup(req.Person)
	if !found {
		return domain.ChatAck{
			Success: false,
			Error:   fmt.Sprintf("User %s is not available", req.Person),
		}, nil
	}

	timestamp := time.Now().Format(time.RFC3339)
	response := domain.ChatResponse{
		From:      sender,
		Message:   req.Message,
		Timestamp: timestamp,
		Type:      "direct",
	}

	for _, session := range sessions {
		if target, ok := h.clients[session.ConnectionID]; ok {
			h.sendPayload(target, domain.EventChatResponse, response)
		}
	}

	echo := response
	echo.Self = true
	if self, ok := h.clients[clientID]; ok {
		h.sendPayload(self, domain.EventChatResponse, echo)
	}

	h.publishEvent(eventbus.EventDirectDelivered, clientID, sender)

	return domain.ChatAck{
		Success:   true,
		Timestamp: timestamp,
	}, nil
}

// Typing implements domain.Hub. The person field always carries the
// authenticated username, never a client-supplied identity.
func (h *Hub) Typing(clientID string, typing bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	username, ok := h.usernames[clientID]
	if !ok {
		return errors.NewAuthRequired("login_required", "typing indicators require login")
	}

	h.broadcastPayload(domain.EventTyping, domain.TypingNotice{
		Person:    username,
		Typing:    typing,
		Timestamp: time.Now().Format(time.RFC3339),
	}, clientID)

	return nil
}

// UpdateStatus implements domain.Hub. Repeated calls never add sessions or
// change the user count.
func (h *Hub) UpdateStatus(clientID string, status string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.usernames[clientID]; !ok {
		return errors.NewAuthRequired("login_required", "status updates require login")
	}

	h.registry.Touch(clientID, strings.TrimSpace(status), time.Now())
	h.publishRosterLocked()

	return nil
}

// Shutdown implements domain.Hub
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	h.logger.Info("shutting down hub", "total_clients", len(h.clients))

	h.broadcastPayload(domain.EventServerMaintenance, domain.Notice{
		Message: "server is going down for maintenance",
	}, "")

	for clientID, client := range h.clients {
		client.Close()
		delete(h.clients, clientID)
	}
}

// Stats implements domain.Hub
func (h *Hub) Stats() domain.HubStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	return domain.HubStats{
		ConnectedClients: len(h.clients),
		OnlineUsers:      h.registry.UserCount(),
		MessagesSent:     h.messagesSent,
		MessagesReceived: h.messagesReceived,
		Uptime:           time.Since(h.startTime).Seconds(),
	}
}

// publishRosterLocked derives the externally visible roster from the registry
// and fans it out. It reads the registry but never mutates it. Callers hold
// the hub mutex.
func (h *Hub) publishRosterLocked() {
	snapshot := h.registry.Snapshot()

	h.broadcastPayload(domain.EventUserList, snapshot, "")
	h.broadcastPayload(domain.EventUserCount, h.registry.UserCount(), "")

	h.publishEvent(eventbus.EventRosterPublished, "", "")
}

// broadcastPayload wraps the payload in an envelope and sends it to every
// connected client, optionally excluding one connection.
func (h *Hub) broadcastPayload(eventType domain.EventType, payload any, excludeID string) {
	msg, err := domain.NewMessage(eventType, payload)
	if err != nil {
		h.logger.Error("failed to build broadcast message", "type", eventType, "error", err)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "type", eventType, "error", err)
		return
	}

	for clientID, client := range h.clients {
		if clientID == excludeID {
			continue
		}
		if err := client.Send(context.Background(), data); err != nil {
			h.logger.Warn("failed to send to client",
				"client_id", clientID,
				"type", eventType,
				"error", err,
			)
			continue
		}
		h.messagesSent++
	}
}

// sendPayload wraps the payload in an envelope and sends it to one client.
func (h *Hub) sendPayload(client domain.Client, eventType domain.EventType, payload any) {
	msg, err := domain.NewMessage(eventType, payload)
	if err != nil {
		h.logger.Error("failed to build message", "type", eventType, "error", err)
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal message", "type", eventType, "error", err)
		return
	}

	if err := client.Send(context.Background(), data); err != nil {
		h.logger.Warn("failed to send to client",
			"client_id", client.ID(),
			"type", eventType,
			"error", err,
		)
		return
	}

	h.messagesSent++
}

// publishEvent emits a lifecycle event on the bus when one is configured.
func (h *Hub) publishEvent(eventType eventbus.EventType, clientID, username string) {
	if h.eventBus == nil {
		return
	}

	event := eventbus.NewEvent(eventType, eventSource, nil)
	if clientID != "" {
		event.WithMetadata("client_id", clientID)
	}
	if username != "" {
		event.WithMetadata("username", username)
	}

	h.eventBus.PublishAsync(event)
}
