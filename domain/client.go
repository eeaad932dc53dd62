package domain

import "context"

type Client interface {
	ID() string

	Send(ctx context.Context, message []byte) error

	Close() error
}
