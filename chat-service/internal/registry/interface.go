package registry

import (
	"context"
	"errors"
)

var ErrRoomNotRegistered = errors.New("room not registered")

// Registry records which instance hosts each live room so peers can route
// to it. Entries expire unless the owner keeps heartbeating.
type Registry interface {
	Register(ctx context.Context, roomID string) error
	Deregister(ctx context.Context, roomID string) error
	Lookup(ctx context.Context, roomID string) (string, error)
	StartHeartbeat(ctx context.Context) error
	StopHeartbeat()
	Close() error
}
