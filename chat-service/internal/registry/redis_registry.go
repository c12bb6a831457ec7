package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/weiawesome/wes-support-chat/chat-service/internal/config"
	"github.com/weiawesome/wes-support-chat/pkg/log"
)

type RedisRegistry struct {
	client            *redis.Client
	advertiseAddress  string
	prefix            string
	keyTTL            time.Duration
	heartbeatInterval time.Duration
	rooms             map[string]struct{} // rooms hosted by this instance
	mu                sync.RWMutex
	cancel            context.CancelFunc
	done              chan struct{}
}

func NewRedisRegistry(cfg config.RedisConfig, advertiseAddress string) (*RedisRegistry, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisRegistry(client, cfg, advertiseAddress), nil
}

func newRedisRegistry(client *redis.Client, cfg config.RedisConfig, advertiseAddress string) *RedisRegistry {
	return &RedisRegistry{
		client:            client,
		advertiseAddress:  advertiseAddress,
		prefix:            cfg.RegistryPrefix,
		keyTTL:            cfg.KeyTTL,
		heartbeatInterval: cfg.HeartbeatInterval,
		rooms:             make(map[string]struct{}),
	}
}

func (r *RedisRegistry) keyFor(roomID string) string {
	return fmt.Sprintf("%s:room:%s", r.prefix, roomID)
}

func (r *RedisRegistry) Register(ctx context.Context, roomID string) error {
	if err := r.client.Set(ctx, r.keyFor(roomID), r.advertiseAddress, r.keyTTL).Err(); err != nil {
		return fmt.Errorf("failed to register room: %w", err)
	}

	r.mu.Lock()
	r.rooms[roomID] = struct{}{}
	r.mu.Unlock()

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldRoomID, roomID).Str("address", r.advertiseAddress).Msg("registered room")
	return nil
}

// Deregister removes the entry only if this instance still owns it.
func (r *RedisRegistry) Deregister(ctx context.Context, roomID string) error {
	r.mu.Lock()
	delete(r.rooms, roomID)
	r.mu.Unlock()

	key := r.keyFor(roomID)
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		owner, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) || (err == nil && owner != r.advertiseAddress) {
			return nil
		}
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("failed to deregister room: %w", err)
	}

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldRoomID, roomID).Msg("deregistered room")
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, roomID string) (string, error) {
	addr, err := r.client.Get(ctx, r.keyFor(roomID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrRoomNotRegistered, roomID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to lookup room: %w", err)
	}
	return addr, nil
}

func (r *RedisRegistry) StartHeartbeat(ctx context.Context) error {
	if r.heartbeatInterval <= 0 {
		return fmt.Errorf("invalid heartbeat interval %s", r.heartbeatInterval)
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.heartbeatLoop(ctx)
	l := log.L()
	l.Info().Dur("interval", r.heartbeatInterval).Dur("ttl", r.keyTTL).Msg("registry heartbeat started")
	return nil
}

func (r *RedisRegistry) heartbeatLoop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *RedisRegistry) refresh(ctx context.Context) {
	r.mu.RLock()
	rooms := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		rooms = append(rooms, id)
	}
	r.mu.RUnlock()

	if len(rooms) == 0 {
		return
	}

	pipe := r.client.Pipeline()
	for _, id := range rooms {
		pipe.Set(ctx, r.keyFor(id), r.advertiseAddress, r.keyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil && ctx.Err() == nil {
		l := log.L()
		l.Error().Err(err).Int("rooms", len(rooms)).Msg("failed to refresh room registry")
	}
}

func (r *RedisRegistry) StopHeartbeat() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
		r.cancel = nil
	}
}

// Close stops the heartbeat and removes every room this instance still owns.
func (r *RedisRegistry) Close() error {
	r.StopHeartbeat()

	r.mu.RLock()
	rooms := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		rooms = append(rooms, id)
	}
	r.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, id := range rooms {
		if err := r.Deregister(ctx, id); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldRoomID, id).Msg("failed to deregister room on close")
		}
	}
	return r.client.Close()
}
