package registry

import "context"

// NopRegistry is used in single-instance mode.
type NopRegistry struct{}

func (NopRegistry) Register(context.Context, string) error { return nil }

func (NopRegistry) Deregister(context.Context, string) error { return nil }

func (NopRegistry) Lookup(context.Context, string) (string, error) {
	return "", ErrRoomNotRegistered
}

func (NopRegistry) StartHeartbeat(context.Context) error { return nil }

func (NopRegistry) StopHeartbeat() {}

func (NopRegistry) Close() error { return nil }
