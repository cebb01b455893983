package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Data is what a session remembers between requests.
type Data struct {
	UserID  uint     `json:"user_id,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
}

// Store persists session data by id.
type Store interface {
	// Load returns empty Data when id is unknown or expired.
	Load(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// RedisStore keeps sessions as JSON under "session:<id>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Load(ctx context.Context, id string) (Data, error) {
	var d Data
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, err
	}
	return d, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, data Data, ttl time.Duration) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(id), payload, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
