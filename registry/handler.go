package registry

import (
	"context"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	"github.com/EmadAlmahdi/WebSocketServer/errors"
)

type Handler interface {
	Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	CanHandle(eventType domain.EventType) bool
}

type HandlerFunc func(ctx context.Context, msg *domain.Message) (*domain.Message, error)

type HandlerRegistry interface {
	Register(eventType domain.EventType, handler Handler)

	Get(eventType domain.EventType) (Handler, bool)

	Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error)
}

type DefaultHandlerRegistry struct {
	handlers map[domain.EventType]Handler
}

func NewHandlerRegistry() *DefaultHandlerRegistry {
	return &DefaultHandlerRegistry{
		handlers: make(map[domain.EventType]Handler),
	}
}

func (r *DefaultHandlerRegistry) Register(eventType domain.EventType, handler Handler) {
	r.handlers[eventType] = handler
}

func (r *DefaultHandlerRegistry) Get(eventType domain.EventType) (Handler, bool) {
	handler, ok := r.handlers[eventType]
	return handler, ok
}

func (r *DefaultHandlerRegistry) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	handler, ok := r.Get(msg.Type)
	if !ok {
		return nil, errors.New(errors.ErrorTypeProtocol, "unknown_event", "no handler for event type").WithDetails(string(msg.Type))
	}

	return handler.Handle(ctx, msg)
}
