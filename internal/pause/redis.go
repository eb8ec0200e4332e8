package pause

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps the state as one JSON value under Key. SET replaces the
// whole value atomically, which lets several processes share the gate.
type RedisStore struct {
	Client *redis.Client
	Key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{Client: client, Key: key}
}

func (r *RedisStore) Load(ctx context.Context) (State, error) {
	data, err := r.Client.Get(ctx, r.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, ErrNoState
		}
		return State{}, fmt.Errorf("reading pause state key %s: %w", r.Key, err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parsing pause state key %s: %w", r.Key, err)
	}
	return state, nil
}

func (r *RedisStore) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling pause state: %w", err)
	}
	if err := r.Client.Set(ctx, r.Key, data, 0).Err(); err != nil {
		return fmt.Errorf("writing pause state key %s: %w", r.Key, err)
	}
	return nil
}
