package router

import (
	"context"

	"github.com/EmadAlmahdi/WebSocketServer/domain"
	"github.com/EmadAlmahdi/WebSocketServer/internal/logging"
	"github.com/EmadAlmahdi/WebSocketServer/registry"
)

type Router struct {
	reg    registry.HandlerRegistry
	logger *logging.Logger
}

func NewRouter(reg registry.HandlerRegistry, logger *logging.Logger) *Router {
	return &Router{
		reg:    reg,
		logger: logger,
	}
}

func (r *Router) Handle(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	return r.reg.Handle(ctx, msg)
}
