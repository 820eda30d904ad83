package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/models"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions as JSON values that expire with the session.
type RedisStore struct {
	Client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client, now: time.Now}
}

func (r *RedisStore) Save(ctx context.Context, s *models.Session) error {
	ttl := s.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", s.ID)
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.Client.Set(ctx, redisKeyPrefix+s.ID, data, ttl).Err()
}

func (r *RedisStore) Find(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.Client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Revoke(ctx context.Context, id string) error {
	return r.Client.Del(ctx, redisKeyPrefix+id).Err()
}
