package config

import (
	"time"

	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Websocket WebsocketConfig `json:"websocket" yaml:"websocket"`
	Hub       HubConfig       `json:"hub" yaml:"hub"`
	Logging   logging.Config  `json:"logging" yaml:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host" envconfig:"SERVER_HOST"`
	Port            int           `json:"port" yaml:"port" envconfig:"SERVER_PORT"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout" envconfig:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" envconfig:"SERVER_SHUTDOWN_TIMEOUT"`
}

// WebsocketConfig represents per-connection websocket options
type WebsocketConfig struct {
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" envconfig:"WS_WRITE_TIMEOUT"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" envconfig:"WS_READ_TIMEOUT"`
	PingInterval    time.Duration `json:"ping_interval" yaml:"ping_interval" envconfig:"WS_PING_INTERVAL"`
	MaxMessageSize  int64         `json:"max_message_size" yaml:"max_message_size" envconfig:"WS_MAX_MESSAGE_SIZE"`
	ReadBufferSize  int           `json:"read_buffer_size" yaml:"read_buffer_size" envconfig:"WS_READ_BUFFER_SIZE"`
	WriteBufferSize int           `json:"write_buffer_size" yaml:"write_buffer_size" envconfig:"WS_WRITE_BUFFER_SIZE"`
}

// HubConfig represents presence hub configuration
type HubConfig struct {
	HistorySize   int `json:"history_size" yaml:"history_size" envconfig:"HUB_HISTORY_SIZE"`
	HistoryReplay int `json:"history_replay" yaml:"history_replay" envconfig:"HUB_HISTORY_REPLAY"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            3000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Websocket: WebsocketConfig{
			WriteTimeout:    10 * time.Second,
			ReadTimeout:     60 * time.Second,
			PingInterval:    30 * time.Second,
			MaxMessageSize:  512 * 1024, // 512KB
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Hub: HubConfig{
			HistorySize:   100,
			HistoryReplay: 20,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return NewConfigError("server.port", "invalid port number")
	}

	if c.Server.ReadTimeout < 0 {
		return NewConfigError("server.read_timeout", "timeout cannot be negative")
	}

	if c.Server.WriteTimeout < 0 {
		return NewConfigError("server.write_timeout", "timeout cannot be negative")
	}

	if c.Websocket.MaxMessageSize <= 0 {
		return NewConfigError("websocket.max_message_size", "must be positive")
	}

	if c.Hub.HistorySize <= 0 {
		return NewConfigError("hub.history_size", "must be positive")
	}

	if c.Hub.HistoryReplay < 0 || c.Hub.HistoryReplay > c.Hub.HistorySize {
		return NewConfigError("hub.history_replay", "must be between 0 and hub.history_size")
	}

	return nil
}
