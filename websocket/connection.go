package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	relayerrors "github.com/EmadAlmahdi/WebSocketServer/errors"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/router"
)

type ConnectionOptions struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
}

func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  512 * 1024, // 512KB
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// Connection is one live transport channel. It implements domain.Client and
// feeds inbound events through the router.
type Connection struct {
	id       string
	ctx      context.Context
	conn     *ws.Conn
	cancel   context.CancelFunc
	router   *router.Router
	logger   *logging.Logger
	errs     relayerrors.Handler
	options  ConnectionOptions
	sendChan chan []byte
	mutex    sync.RWMutex
	closed   bool
}

func NewConnection(id string, conn *ws.Conn, router *router.Router, logger *logging.Logger, options ConnectionOptions) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:       id,
		ctx:      ctx,
		conn:     conn,
		router:   router,
		cancel:   cancel,
		logger:   logger,
		errs:     relayerrors.NewDefaultHandler(logger.Logger),
		options:  options,
		sendChan: make(chan []byte, 256),
	}
}

// ID implements domain.Client
func (c *Connection) ID() string {
	return c.id
}

// Send implements domain.Client. The send is fire-and-forget: the message is
// queued for the write pump and a full queue is reported as an error rather
// than blocking the hub.
func (c *Connection) Send(ctx context.Context, message []byte) error {
	c.mutex.RLock()
	if c.closed {
		c.mutex.RUnlock()
		return errors.New("connection is closed")
	}
	c.mutex.RUnlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return errors.New("connection context done")
	case c.sendChan <- message:
		return nil
	default:
		return errors.New("send channel full or blocked")
	}
}

// Close implements domain.Client
func (c *Connection) Close() error {
	c.mutex.Lock()
	if c.closed {
		c.mutex.Unlock()
		return nil
	}
	c.closed = true
	c.mutex.Unlock()

	c.logger.Debug("closing websocket connection", "client_id", c.id)

	c.cancel()
	close(c.sendChan)

	if err := c.conn.Close(); err != nil {
		return err
	}

	return nil
}

func (c *Connection) Context() context.Context {
	return c.ctx
}

// Start runs the read and write pumps and blocks until the read pump exits.
func (c *Connection) Start(ctx context.Context) {
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.readPump(ctx)
	}()

	go c.writePump(ctx)

	<-done
}

func (c *Connection) readPump(ctx context.Context) {
	defer func() {
		c.logger.Debug("read pump stopped", "client_id", c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(c.options.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.options.ReadTimeout))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ctx.Done():
			return
		default:
			messageType, message, err := c.conn.ReadMessage()
			if err != nil {
				if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseAbnormalClosure) {
					c.logger.Warn("websocket unexpected close", "client_id", c.id, "error", err)
				} else {
					c.logger.Debug("websocket connection closed", "client_id", c.id, "error", err)
				}
				return
			}

			if messageType != ws.TextMessage && messageType != ws.BinaryMessage {
				continue
			}

			var msg domain.Message
			if err := json.Unmarshal(message, &msg); err != nil {
				c.logger.Warn("failed to unmarshal message", "client_id", c.id, "error", err)
				continue
			}

			response, err := c.router.Handle(ctx, &msg)
			if err != nil {
				// a bad event from one connection never escalates past it
				c.errs.Handle(ctx, err)
				continue
			}

			if response != nil {
				respData, err := json.Marshal(response)
				if err != nil {
					c.logger.Error("failed to marshal response", "client_id", c.id, "error", err)
					continue
				}

				if err := c.Send(ctx, respData); err != nil {
					c.logger.Warn("failed to send response", "client_id", c.id, "error", err)
					continue
				}
			}
		}
	}
}

func (c *Connection) writePump(ctx context.Context) {
	defer func() {
		c.logger.Debug("write pump stopped", "client_id", c.id)
	}()

	pingInterval := c.options.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultConnectionOptions().PingInterval
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ctx.Done():
			return
		case message, ok := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))

			if !ok {
				c.conn.WriteMessage(ws.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(ws.TextMessage, message); err != nil {
				c.logger.Warn("websocket write error", "client_id", c.id, "error", err)
				return
			}

			// drain any queued messages
			n := len(c.sendChan)
			for range n {
				select {
				case msg := <-c.sendChan:
					if err := c.conn.WriteMessage(ws.TextMessage, msg); err != nil {
						c.logger.Warn("websocket write error", "client_id", c.id, "error", err)
						return
					}
				default:
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.options.WriteTimeout))
			if err := c.conn.WriteMessage(ws.PingMessage, nil); err != nil {
				c.logger.Debug("websocket ping error", "client_id", c.id, "error", err)
				return
			}
		}
	}
}
