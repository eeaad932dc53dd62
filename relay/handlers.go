package relay

import (
	"context"
	"encoding/json"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	"github.com/EmadAlmahdi/WebSocketServer/errors"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/registry"
)

// RegisterHandlers wires every inbound event handler into the dispatch
// registry.
func RegisterHandlers(reg registry.HandlerRegistry, hub domain.Hub, logger *logging.Logger) {
	reg.Register(domain.EventLogin, NewLoginHandler(hub, logger))
	reg.Register(domain.EventMessage, NewMessageHandler(hub, logger))
	reg.Register(domain.EventChatMessage, NewChatMessageHandler(hub, logger))
	reg.Register(domain.EventTyping, NewTypingHandler(hub, logger))
	reg.Register(domain.EventUpdateStatus, NewStatusHandler(hub, logger))
}

// LoginHandler authenticates a connection under a username
type LoginHandler struct {
	hub    domain.Hub
	logger *logging.Logger
}

func NewLoginHandler(hub domain.Hub, logger *logging.Logger) *LoginHandler {
	return &LoginHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *LoginHandler) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	clientID, ok := domain.ConnectionIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "missing_connection", "connection id not found in context")
	}

	var req domain.LoginRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return domain.NewMessage(domain.EventLoginError, domain.ErrorPayload{
			Message: "malformed login payload",
		})
	}

	res, err := h.hub.Login(clientID, req)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeValidation) {
			h.logger.Info("login rejected", "client_id", clientID, "error", err)
			return domain.NewMessage(domain.EventLoginError, domain.ErrorPayload{
				Message: errorMessage(err),
			})
		}
		return nil, err
	}

	return domain.NewMessage(domain.EventLoginSuccess, res)
}

func (h *LoginHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventLogin
}

// MessageHandler fans a public message out to every connection
type MessageHandler struct {
	hub    domain.Hub
	logger *logging.Logger
}

func NewMessageHandler(hub domain.Hub, logger *logging.Logger) *MessageHandler {
	return &MessageHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *MessageHandler) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	clientID, ok := domain.ConnectionIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "missing_connection", "connection id not found in context")
	}

	ack, err := h.hub.Broadcast(clientID, msg.Data)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeValidation) {
			return domain.NewMessage(domain.EventMessageReceived, domain.MessageAck{
				Status:  "error",
				Message: errorMessage(err),
			})
		}
		return nil, err
	}

	return domain.NewMessage(domain.EventMessageReceived, ack)
}

func (h *MessageHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventMessage
}

// ChatMessageHandler delivers a direct message to one username
type ChatMessageHandler struct {
	hub    domain.Hub
	logger *logging.Logger
}

func NewChatMessageHandler(hub domain.Hub, logger *logging.Logger) *ChatMessageHandler {
	return &ChatMessageHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *ChatMessageHandler) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	clientID, ok := domain.ConnectionIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "missing_connection", "connection id not found in context")
	}

	var req domain.ChatMessage
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		return domain.NewMessage(domain.EventChatAck, domain.ChatAck{
			Success: false,
			Error:   "malformed chat payload",
		})
	}

	ack, err := h.hub.Direct(clientID, req)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeAuthRequired) {
			return authErrorResponse(err)
		}
		return nil, err
	}

	if !ack.Success {
		h.logger.Info("direct message not delivered",
			"client_id", clientID,
			"target", req.Person,
			"reason", ack.Error,
		)
	}

	return domain.NewMessage(domain.EventChatAck, ack)
}

func (h *ChatMessageHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventChatMessage
}

// TypingHandler relays typing indicators to all other connections
type TypingHandler struct {
	hub    domain.Hub
	logger *logging.Logger
}

func NewTypingHandler(hub domain.Hub, logger *logging.Logger) *TypingHandler {
	return &TypingHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *TypingHandler) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	clientID, ok := domain.ConnectionIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "missing_connection", "connection id not found in context")
	}

	var notice domain.TypingNotice
	if err := json.Unmarshal(msg.Data, &notice); err != nil {
		h.logger.Info("dropping malformed typing payload", "client_id", clientID, "error", err)
		return nil, nil
	}

	if err := h.hub.Typing(clientID, notice.Typing); err != nil {
		if errors.IsType(err, errors.ErrorTypeAuthRequired) {
			return authErrorResponse(err)
		}
		return nil, err
	}

	return nil, nil
}

func (h *TypingHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventTyping
}

// StatusHandler applies a status update to the caller's own session
type StatusHandler struct {
	hub    domain.Hub
	logger *logging.Logger
}

func NewStatusHandler(hub domain.Hub, logger *logging.Logger) *StatusHandler {
	return &StatusHandler{
		hub:    hub,
		logger: logger,
	}
}

func (h *StatusHandler) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	clientID, ok := domain.ConnectionIDFromContext(ctx)
	if !ok {
		return nil, errors.New(errors.ErrorTypeInternal, "missing_connection", "connection id not found in context")
	}

	var update domain.StatusUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		h.logger.Info("dropping malformed status payload", "client_id", clientID, "error", err)
		return nil, nil
	}

	if err := h.hub.UpdateStatus(clientID, update.Status); err != nil {
		if errors.IsType(err, errors.ErrorTypeAuthRequired) {
			return authErrorResponse(err)
		}
		return nil, err
	}

	// status updates are acknowledged silently through the roster republish
	return nil, nil
}

func (h *StatusHandler) CanHandle(eventType domain.EventType) bool {
	return eventType == domain.EventUpdateStatus
}

func authErrorResponse(err error) (*domain.Message, error) {
	return domain.NewMessage(domain.EventAuthError, domain.ErrorPayload{
		Message: errorMessage(err),
	})
}

func errorMessage(err error) string {
	if e, ok := err.(*errors.Error); ok {
		return e.Message
	}
	return err.Error()
}
