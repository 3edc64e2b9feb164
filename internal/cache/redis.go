package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/printshop/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 15 * time.Minute

// RedisCache stores a session as two keys, session:<id>:user and session:<id>:cart.
// The cart key is always written, so its absence is a miss.
type RedisCache struct {
	client  redis.UniversalClient
	baseTTL time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{
		client:  client,
		baseTTL: ttl,
	}
}

func (r *RedisCache) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	values, err := r.client.MGet(ctx, userKey(sessionID), cartKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	rawCart, ok := values[1].(string)
	if !ok {
		return nil, ErrCacheMiss
	}

	s := &domain.Session{ID: sessionID}
	if err := json.Unmarshal([]byte(rawCart), &s.Cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if s.Cart == nil {
		s.Cart = []domain.CartItem{}
	}

	if rawUser, ok := values[0].(string); ok {
		var user domain.User
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			return nil, fmt.Errorf("unmarshal user failed: %w", err)
		}
		s.User = &user
	}

	return s, nil
}

func (r *RedisCache) Set(ctx context.Context, session *domain.Session) error {
	items := session.Cart
	if items == nil {
		items = []domain.CartItem{}
	}
	jsonCart, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	var jsonUser []byte
	if session.User != nil {
		if jsonUser, err = json.Marshal(session.User); err != nil {
			return fmt.Errorf("marshal user failed: %w", err)
		}
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if jsonUser != nil {
			pipe.Set(ctx, userKey(session.ID), string(jsonUser), ttl)
		} else {
			pipe.Del(ctx, userKey(session.ID))
		}
		pipe.Set(ctx, cartKey(session.ID), string(jsonCart), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, userKey(sessionID), cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func userKey(sessionID string) string {
	return fmt.Sprintf("session:%s:user", sessionID)
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("session:%s:cart", sessionID)
}
