package domain

import "encoding/json"

type HubStats struct {
	ConnectedClients int     `json:"connected_clients"`
	OnlineUsers      int     `json:"online_users"`
	MessagesSent     int64   `json:"messages_sent"`
	MessagesReceived int64   `json:"messages_received"`
	Uptime           float64 `json:"uptime_seconds"`
}

type Hub interface {
	// Connect adds a freshly upgraded connection and greets it
	Connect(client Client) error

	// Disconnect runs the terminal lifecycle transition for a connection
	Disconnect(clientID string)

	// Login authenticates a connection under a username
	Login(clientID string, req LoginRequest) (LoginSuccess, error)

	// Broadcast fans a public message out to every connection
	Broadcast(clientID string, payload json.RawMessage) (MessageAck, error)

	// Direct delivers a message to every session of one username
	Direct(clientID string, req ChatMessage) (ChatAck, error)

	// Typing relays a typing indicator to all other connections
	Typing(clientID string, typing bool) error

	// UpdateStatus touches the caller's own session and republishes the roster
	UpdateStatus(clientID string, status string) error

	// Shutdown notifies all clients and closes their connections
	Shutdown()

	// Stats returns hub counters
	Stats() HubStats
}
