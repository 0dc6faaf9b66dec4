package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const handoffKeyPrefix = "changekit:handoff:"

// RedisHandoffStore keeps handoffs in Redis so any server instance can take them
type RedisHandoffStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHandoffStore connects to Redis and verifies the connection
func NewRedisHandoffStore(addr, password string, db int, ttl time.Duration) (*RedisHandoffStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisHandoffStore{client: client, ttl: ttl}, nil
}

func (s *RedisHandoffStore) Put(ctx context.Context, h Handoff) (string, error) {
	data, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("failed to marshal handoff: %w", err)
	}

	token := uuid.New().String()
	if err := s.client.Set(ctx, handoffKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store handoff: %w", err)
	}
	return token, nil
}

// Take reads and deletes the handoff in one GETDEL so it can be taken once
func (s *RedisHandoffStore) Take(ctx context.Context, token string) (*Handoff, error) {
	data, err := s.client.GetDel(ctx, handoffKeyPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrHandoffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to take handoff: %w", err)
	}

	var h Handoff
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal handoff: %w", err)
	}
	return &h, nil
}

// Close closes the Redis connection
func (s *RedisHandoffStore) Close() error {
	return s.client.Close()
}
