// Package cache keeps session snapshots in Redis in front of the session repository.
package cache

import (
	"context"
	"errors"

	"github.com/fjod/printshop/internal/domain"
)

type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Set(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never holds anything. It is used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*domain.Session, error) { return nil, ErrCacheMiss }

func (NopCache) Set(context.Context, *domain.Session) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }
