package domain

import (
	"encoding/json"
	"time"

	"github.com/rs/xid"
)

// EventType identifies an inbound or outbound relay event
type EventType string

const (
	// inbound (client -> hub)
	EventLogin        EventType = "login"
	EventMessage      EventType = "message"
	EventTyping       EventType = "typing"
	EventChatMessage  EventType = "chatMessage"
	EventUpdateStatus EventType = "updateStatus"

	// connection-scoped responses (hub -> one client)
	EventConnected       EventType = "connected"
	EventLoginSuccess    EventType = "loginSuccess"
	EventLoginError      EventType = "loginError"
	EventMessageReceived EventType = "messageReceived"
	EventMessageHistory  EventType = "messageHistory"
	EventChatAck         EventType = "chatAck"
	EventChatResponse    EventType = "chatResponse"
	EventAuthError       EventType = "authError"

	// broadcast (hub -> all clients); typing reuses the inbound event name
	EventNewMessage        EventType = "newMessage"
	EventUserList          EventType = "userList"
	EventUserCount         EventType = "userCount"
	EventServerMaintenance EventType = "serverMaintenance"
)

// Message is the wire envelope for every relay event
type Message struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewMessage wraps a payload in a stamped envelope
func NewMessage(eventType EventType, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        xid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// LoginRequest carries the credentials of a login event
type LoginRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	FullName    string `json:"fullName" validate:"required,max=100"`
	SourceURL   string `json:"sourceUrl"`
	ClientAgent string `json:"clientAgent"`
}

// LoginSuccess acknowledges a completed authentication
type LoginSuccess struct {
	Username  string `json:"username"`
	SessionID string `json:"sessionId"`
}

// ErrorPayload is the body of loginError and authError responses
type ErrorPayload struct {
	Message string `json:"message"`
}

// BroadcastMessage is a public message enriched with sender and timestamp
type BroadcastMessage struct {
	From      string          `json:"from"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// MessageAck acknowledges a broadcast to its sender
type MessageAck struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// TypingNotice is relayed to every connection except the typist
type TypingNotice struct {
	Person    string `json:"person"`
	Typing    bool   `json:"typing"`
	Timestamp string `json:"timestamp"`
}

// ChatMessage is a direct message addressed to a username
type ChatMessage struct {
	Person  string `json:"person" validate:"required,max=100"`
	Message string `json:"message" validate:"required,max=100"`
}

// ChatAck reports delivery of a direct message back to the sender
type ChatAck struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ChatResponse is the payload delivered to each target session
type ChatResponse struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Self      bool   `json:"self,omitempty"`
}

// StatusUpdate carries an updateStatus event
type StatusUpdate struct {
	Status string `json:"status"`
}

// Notice is an informational broadcast such as serverMaintenance
type Notice struct {
	Message string `json:"message"`
}

// Connected greets a freshly established connection
type Connected struct {
	ConnectionID string `json:"connectionId"`
	ServerTime   string `json:"serverTime"`
}
