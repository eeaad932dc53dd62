package websocket

import (
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/rs/xid"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/router"
)

// Server upgrades HTTP requests, assigns connection ids and ties each
// connection's lifetime to the hub.
type Server struct {
	upgrader ws.Upgrader
	hub      domain.Hub
	router   *router.Router
	logger   *logging.Logger
	options  ConnectionOptions
}

func NewServer(hub domain.Hub, router *router.Router, logger *logging.Logger, options ConnectionOptions) *Server {
	upgrader := ws.Upgrader{
		ReadBufferSize:  options.ReadBufferSize,
		WriteBufferSize: options.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return &Server{
		upgrader: upgrader,
		hub:      hub,
		router:   router,
		logger:   logger,
		options:  options,
	}
}

// Handle serves one websocket connection until it closes. Transport faults
// surface as a read error and are treated as a disconnect.
func (s *Server) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}

	clientID := xid.New().String()
	connection := NewConnection(clientID, conn, s.router, s.logger, s.options)

	if err := s.hub.Connect(connection); err != nil {
		s.logger.Warn("rejecting connection", "client_id", clientID, "error", err)
		connection.Close()
		return
	}

	ctx := domain.WithConnectionID(r.Context(), clientID)
	connection.Start(ctx)

	s.hub.Disconnect(clientID)
}
