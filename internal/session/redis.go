package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderbot/pkg/redis"
)

// Redis keeps sessions in Redis as JSON so they survive restarts. Idle
// sessions expire through the client TTL.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func redisKey(key Key) string {
	return fmt.Sprintf("session:%d:%d", key.ChatID, key.UserID)
}

func (r *Redis) Get(ctx context.Context, key Key) (*Session, error) {
	var s Session
	if err := r.client.GetJSON(ctx, redisKey(key), &s); err != nil {
		if errors.Is(err, redis.ErrMiss) {
			return &Session{State: StateNone}, nil
		}
		return nil, fmt.Errorf("session.Redis.Get: %w", err)
	}
	return &s, nil
}

func (r *Redis) Save(ctx context.Context, key Key, s *Session) error {
	s.UpdatedAt = time.Now().UTC()
	if err := r.client.SetJSON(ctx, redisKey(key), s); err != nil {
		return fmt.Errorf("session.Redis.Save: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, key Key) error {
	if err := r.client.Del(ctx, redisKey(key)); err != nil {
		return fmt.Errorf("session.Redis.Clear: %w", err)
	}
	return nil
}
