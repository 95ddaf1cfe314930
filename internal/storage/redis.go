package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cafeteria-planner/internal/catalog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is where the user recipes live when no key is configured.
const DefaultRedisKey = "cafeteria:recipes"

// RedisStore keeps the user recipes as one JSON value.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Load(ctx context.Context) (catalog.UserState, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return catalog.UserState{}, nil
	}
	if err != nil {
		return catalog.UserState{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}

	var state catalog.UserState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return catalog.UserState{}, fmt.Errorf("failed to unmarshal %s: %w", s.key, err)
	}
	return state, nil
}

func (s *RedisStore) Save(ctx context.Context, state catalog.UserState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal recipes: %w", err)
	}
	if err := s.client.Set(ctx, s.key, string(data), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
